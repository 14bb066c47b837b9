// Package ledger holds one user's transactions and friends and applies the
// accounting rules that keep the wallet balance and friend debts in step.
//
// A Ledger is owned by exactly one session and is not safe for concurrent
// use. It never persists itself; callers snapshot it after every mutation.
package ledger

import (
	"strings"

	"debttracker/internal/core"
)

// Ledger is the in-memory store for a single user's ledger state.
type Ledger struct {
	// newest first
	transactions []core.Transaction
	friends      []core.Friend
	byID         map[core.ID]int
	settings     core.Settings

	balance core.Money
	newID   func() core.ID
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithIDGenerator replaces the id source for new transactions and friends.
func WithIDGenerator(gen func() core.ID) Option {
	return func(l *Ledger) { l.newID = gen }
}

// New returns an empty ledger with default settings.
func New(opts ...Option) *Ledger {
	return FromSnapshot(core.EmptySnapshot(), opts...)
}

// FromSnapshot rebuilds a ledger from persisted state. The snapshot is
// copied; later changes to it do not affect the ledger.
func FromSnapshot(snap core.Snapshot, opts ...Option) *Ledger {
	l := &Ledger{
		transactions: append([]core.Transaction(nil), snap.Transactions...),
		friends:      append([]core.Friend(nil), snap.Friends...),
		settings:     snap.Settings,
		newID:        core.NewID,
	}
	if l.settings.SalaryDay == 0 {
		l.settings.SalaryDay = core.DefaultSettings().SalaryDay
	}
	for _, opt := range opts {
		opt(l)
	}
	l.reindex()
	l.recalculate()
	return l
}

func (l *Ledger) reindex() {
	l.byID = make(map[core.ID]int, len(l.friends))
	for i, f := range l.friends {
		l.byID[f.ID] = i
	}
}

// Append prepends tx so that index 0 is always the most recent transaction.
// It applies no side effects; use Record for validated, debt-aware writes.
func (l *Ledger) Append(tx core.Transaction) {
	l.transactions = append(l.transactions, core.Transaction{})
	copy(l.transactions[1:], l.transactions)
	l.transactions[0] = tx
	l.recalculate()
}

// AddFriend registers a counterparty with a zero balance.
func (l *Ledger) AddFriend(name string) (core.Friend, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Friend{}, &core.ValidationError{Field: "name", Err: core.ErrEmptyName}
	}
	f := core.Friend{ID: l.newID(), Name: name}
	l.friends = append(l.friends, f)
	l.byID[f.ID] = len(l.friends) - 1
	return f, nil
}

// FindFriend returns the live friend record so callers inside the package
// can adjust its balance. The bool is false when id is unknown.
func (l *Ledger) FindFriend(id core.ID) (*core.Friend, bool) {
	i, ok := l.byID[id]
	if !ok {
		return nil, false
	}
	return &l.friends[i], true
}

// Friend returns a copy of the friend with the given id.
func (l *Ledger) Friend(id core.ID) (core.Friend, error) {
	f, ok := l.FindFriend(id)
	if !ok {
		return core.Friend{}, &core.NotFoundError{Entity: "friend", ID: id}
	}
	return *f, nil
}

// Friends returns a copy of the friend list in creation order.
func (l *Ledger) Friends() []core.Friend {
	return append([]core.Friend(nil), l.friends...)
}

// Transactions returns a copy of the transaction list, newest first.
func (l *Ledger) Transactions() []core.Transaction {
	return append([]core.Transaction(nil), l.transactions...)
}

// Transaction looks up a transaction by id.
func (l *Ledger) Transaction(id core.ID) (core.Transaction, bool) {
	for _, tx := range l.transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// Settings returns the current salary settings.
func (l *Ledger) Settings() core.Settings {
	return l.settings
}

// Balance is the wallet balance as of the last mutation.
func (l *Ledger) Balance() core.Money {
	return l.balance
}

// Summary returns the headline totals shown on the dashboard.
func (l *Ledger) Summary() core.Summary {
	return core.Summary{
		TotalBalance:     l.balance,
		TotalOwedToOwner: TotalOwedToOwner(l.friends),
		FriendCount:      len(l.friends),
		TransactionCount: len(l.transactions),
	}
}

// Snapshot copies the ledger state for persistence. Transactions are
// immutable, so their FriendID and Split pointers are shared.
func (l *Ledger) Snapshot() core.Snapshot {
	txs := l.Transactions()
	if txs == nil {
		txs = []core.Transaction{}
	}
	friends := l.Friends()
	if friends == nil {
		friends = []core.Friend{}
	}
	return core.Snapshot{
		Transactions: txs,
		Friends:      friends,
		Settings:     l.settings,
	}
}

// recalculate runs the full balance fold. It is called after every mutation
// so Balance never drifts from TotalBalance(transactions).
func (l *Ledger) recalculate() {
	l.balance = TotalBalance(l.transactions)
}

func (l *Ledger) adjustDebt(f *core.Friend, delta core.Money) {
	f.Balance = f.Balance.Add(delta)
}
