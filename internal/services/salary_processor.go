package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"debttracker/internal/storage"
)

// SalaryProcessorConfig holds configuration for the salary processor
type SalaryProcessorConfig struct {
	// Interval is how often every stored ledger is checked (default: 1h)
	Interval time.Duration
}

// DefaultSalaryProcessorConfig returns sensible defaults
func DefaultSalaryProcessorConfig() SalaryProcessorConfig {
	return SalaryProcessorConfig{
		Interval: time.Hour,
	}
}

// SalaryProcessor credits due monthly salaries for every stored ledger, so
// users who do not open their ledger still get paid on time.
type SalaryProcessor struct {
	store     storage.SnapshotStore
	publisher EventPublisher
	config    SalaryProcessorConfig
	clock     func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSalaryProcessor creates a salary processor. publisher may be nil.
func NewSalaryProcessor(store storage.SnapshotStore, publisher EventPublisher, config SalaryProcessorConfig) *SalaryProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultSalaryProcessorConfig().Interval
	}
	return &SalaryProcessor{
		store:     store,
		publisher: publisher,
		config:    config,
		clock:     time.Now,
	}
}

// ProcessAll runs the salary check against every stored ledger at now and
// returns how many salaries were credited. A failing ledger is logged and
// skipped.
func (p *SalaryProcessor) ProcessAll(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	users, err := p.store.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ledgers: %w", err)
	}

	slog.InfoContext(ctx, "Processing monthly salaries",
		"ledgers", len(users),
		"processing_date", now.Format("2006-01-02"))

	credited := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return credited, err
		}

		opts := []Option{WithClock(func() time.Time { return now })}
		if p.publisher != nil {
			opts = append(opts, WithPublisher(p.publisher))
		}
		svc := NewLedgerService(p.store, opts...)
		if err := svc.load(ctx, user); err != nil {
			slog.ErrorContext(ctx, "Failed to load ledger", "user", user, "error", err)
			continue
		}
		_, fired, err := svc.CheckSalary(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to credit salary", "user", user, "error", err)
			continue
		}
		if fired {
			credited++
		}
	}

	slog.InfoContext(ctx, "Salary processing complete",
		"credited", credited,
		"total_checked", len(users))

	return credited, nil
}

// Start runs ProcessAll immediately and then every Interval until Stop is
// called or ctx is cancelled. Returns an error if already running.
func (p *SalaryProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("salary processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Salary processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (p *SalaryProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Salary processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Salary processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning reports whether the loop is active.
func (p *SalaryProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Done is closed when the loop exits.
func (p *SalaryProcessor) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneCh
}

func (p *SalaryProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *SalaryProcessor) tick(ctx context.Context) {
	if _, err := p.ProcessAll(ctx, p.clock()); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Salary processing failed", "error", err)
	}
}
