// Package services orchestrates ledger sessions and background processing
// across storage, messaging and the in-memory ledger.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"debttracker/internal/amqp"
	"debttracker/internal/core"
	"debttracker/internal/export"
	"debttracker/internal/ledger"
	applog "debttracker/internal/log"
	"debttracker/internal/storage"
)

// ErrNotOpen is returned by operations called before Open.
var ErrNotOpen = errors.New("no ledger is open")

// EventPublisher announces ledger changes to other processes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

// Renderer is told about every successful change so views can refresh.
type Renderer interface {
	Refresh(ctx context.Context, user string, summary core.Summary)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, user string, summary core.Summary)

func (f RendererFunc) Refresh(ctx context.Context, user string, summary core.Summary) {
	f(ctx, user, summary)
}

// LedgerService is one session over one user's ledger. Every mutation is
// persisted before it returns; if the save fails the in-memory ledger is
// rolled back so it never runs ahead of storage.
//
// A LedgerService is not safe for concurrent use.
type LedgerService struct {
	store       storage.SnapshotStore
	publisher   EventPublisher
	renderer    Renderer
	categorizer ledger.Categorizer
	clock       func() time.Time
	ledgerOpts  []ledger.Option

	user   string
	ledger *ledger.Ledger
}

// Option configures a LedgerService.
type Option func(*LedgerService)

func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithRenderer(r Renderer) Option {
	return func(s *LedgerService) { s.renderer = r }
}

func WithCategorizer(c ledger.Categorizer) Option {
	return func(s *LedgerService) { s.categorizer = c }
}

// WithClock replaces time.Now, mainly for salary checks in tests.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.clock = now }
}

// WithLedgerOptions is passed to every ledger the service opens.
func WithLedgerOptions(opts ...ledger.Option) Option {
	return func(s *LedgerService) { s.ledgerOpts = append(s.ledgerOpts, opts...) }
}

func NewLedgerService(store storage.SnapshotStore, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:       store,
		categorizer: ledger.DescriptionCategorizer,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the user's ledger, replacing any ledger already open, and runs
// the salary check. A salary credited here is persisted immediately.
func (s *LedgerService) Open(ctx context.Context, user string) error {
	if err := s.load(ctx, user); err != nil {
		return err
	}
	if _, _, err := s.CheckSalary(ctx); err != nil {
		return err
	}
	return nil
}

func (s *LedgerService) load(ctx context.Context, user string) error {
	if user == "" {
		return &core.ValidationError{Field: "user", Err: core.ErrEmptyName}
	}
	snap, err := s.store.Load(ctx, user)
	if err != nil {
		return fmt.Errorf("open ledger for %s: %w", user, err)
	}
	s.user = user
	s.ledger = ledger.FromSnapshot(snap, s.ledgerOpts...)

	slog.DebugContext(ctx, "Ledger opened",
		applog.FieldUser, user,
		"transactions", len(snap.Transactions),
		"friends", len(snap.Friends))
	return nil
}

// User returns the identity of the open ledger.
func (s *LedgerService) User() string { return s.user }

// Record validates and stores a new transaction. A zero req.At is stamped
// with the service clock.
func (s *LedgerService) Record(ctx context.Context, req ledger.RecordRequest) (core.Transaction, error) {
	if s.ledger == nil {
		return core.Transaction{}, ErrNotOpen
	}
	if req.At.IsZero() {
		req.At = s.clock()
	}
	before := s.ledger.Snapshot()
	tx, err := s.ledger.Record(req)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.commit(ctx, before); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction recorded",
		applog.NewFields().WithOperation(applog.OpRecord).WithUser(s.user).WithTransaction(tx).ToSlice()...)

	s.notify(ctx, amqp.NewTransactionMessage(s.user, tx))
	return tx, nil
}

// AddFriend registers a counterparty.
func (s *LedgerService) AddFriend(ctx context.Context, name string) (core.Friend, error) {
	if s.ledger == nil {
		return core.Friend{}, ErrNotOpen
	}
	before := s.ledger.Snapshot()
	f, err := s.ledger.AddFriend(name)
	if err != nil {
		return core.Friend{}, err
	}
	if err := s.commit(ctx, before); err != nil {
		return core.Friend{}, err
	}
	s.notify(ctx, amqp.NewLedgerMessage(s.user, amqp.EventFriendAdded))
	return f, nil
}

// SettleDebt records a repayment of the friend's whole outstanding balance.
func (s *LedgerService) SettleDebt(ctx context.Context, friendID core.ID) (core.Transaction, error) {
	if s.ledger == nil {
		return core.Transaction{}, ErrNotOpen
	}
	before := s.ledger.Snapshot()
	tx, err := s.ledger.SettleDebt(friendID, s.clock())
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.commit(ctx, before); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Debt settled",
		applog.NewFields().WithOperation(applog.OpSettle).WithUser(s.user).WithTransaction(tx).ToSlice()...)

	s.notify(ctx, amqp.NewTransactionMessage(s.user, tx))
	return tx, nil
}

// SaveSalarySettings stores new salary settings and immediately checks
// whether the salary is now due.
func (s *LedgerService) SaveSalarySettings(ctx context.Context, amount core.Money, day int) error {
	if s.ledger == nil {
		return ErrNotOpen
	}
	before := s.ledger.Snapshot()
	if err := s.ledger.SaveSalarySettings(amount, day); err != nil {
		return err
	}
	if err := s.commit(ctx, before); err != nil {
		return err
	}
	s.notify(ctx, amqp.NewLedgerMessage(s.user, amqp.EventSettingsSaved))

	_, _, err := s.CheckSalary(ctx)
	return err
}

// CheckSalary credits the monthly salary if it is due at the service clock.
func (s *LedgerService) CheckSalary(ctx context.Context) (core.Transaction, bool, error) {
	if s.ledger == nil {
		return core.Transaction{}, false, ErrNotOpen
	}
	before := s.ledger.Snapshot()
	tx, fired := s.ledger.CheckSalary(s.clock())
	if !fired {
		return core.Transaction{}, false, nil
	}
	if err := s.commit(ctx, before); err != nil {
		return core.Transaction{}, false, err
	}

	fields := applog.NewFields().WithOperation(applog.OpSalary).WithUser(s.user).WithTransaction(tx)
	fields[applog.FieldMonth] = core.MonthTokenOf(tx.Date).String()
	slog.InfoContext(ctx, "Monthly salary credited", fields.ToSlice()...)

	s.notify(ctx, amqp.NewTransactionMessage(s.user, tx))
	return tx, true, nil
}

// Summary returns the dashboard totals.
func (s *LedgerService) Summary() core.Summary {
	if s.ledger == nil {
		return core.Summary{}
	}
	return s.ledger.Summary()
}

func (s *LedgerService) Friends() []core.Friend {
	if s.ledger == nil {
		return nil
	}
	return s.ledger.Friends()
}

func (s *LedgerService) Settings() core.Settings {
	if s.ledger == nil {
		return core.DefaultSettings()
	}
	return s.ledger.Settings()
}

// History returns the window's transactions, newest first.
func (s *LedgerService) History(w ledger.Window) []core.Transaction {
	if s.ledger == nil {
		return nil
	}
	return ledger.Filter(s.ledger.Transactions(), w, s.clock())
}

// Report builds the income and expense overview for the window.
func (s *LedgerService) Report(w ledger.Window) ledger.Report {
	if s.ledger == nil {
		return ledger.Report{Window: w}
	}
	return ledger.BuildReport(s.ledger.Transactions(), w, s.clock(), s.categorizer)
}

// ExportCSV writes the window's history as CSV and returns the suggested
// file name.
func (s *LedgerService) ExportCSV(w io.Writer, window ledger.Window) (string, error) {
	if s.ledger == nil {
		return "", ErrNotOpen
	}
	now := s.clock()
	if err := export.WriteCSV(w, s.History(window), s.ledger.Friends()); err != nil {
		return "", err
	}
	return export.FileName(string(window), now), nil
}

// commit persists the ledger. On failure the ledger is restored to before.
func (s *LedgerService) commit(ctx context.Context, before core.Snapshot) error {
	if err := s.store.Save(ctx, s.user, s.ledger.Snapshot()); err != nil {
		s.ledger = ledger.FromSnapshot(before, s.ledgerOpts...)
		slog.ErrorContext(ctx, "Failed to save ledger, change rolled back",
			applog.NewFields().WithUser(s.user).WithError(err).ToSlice()...)
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// notify publishes the event and refreshes the renderer. Publishing is best
// effort: the change is already saved.
func (s *LedgerService) notify(ctx context.Context, msg *amqp.LedgerEventMessage) {
	if s.publisher != nil {
		if err := s.publisher.PublishLedgerEvent(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger event",
				applog.FieldUser, s.user,
				applog.FieldEvent, msg.Event,
				applog.FieldError, err)
		}
	}
	if s.renderer != nil {
		s.renderer.Refresh(ctx, s.user, s.ledger.Summary())
	}
}
