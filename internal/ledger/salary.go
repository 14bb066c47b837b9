package ledger

import (
	"time"

	"debttracker/internal/core"
)

// SalaryDescription labels automatically credited salaries.
const SalaryDescription = "Monthly Salary (Auto)"

// SalaryDue reports whether the monthly salary should be credited at now.
//
// The salary fires once per calendar month, on or after the configured day.
// A day beyond the end of the month (31 in April) is never reached, so that
// month is skipped rather than clamped to its last day.
func SalaryDue(s core.Settings, now time.Time) bool {
	if !s.SalaryAmount.IsPositive() {
		return false
	}
	if s.LastSalaryMonth != nil && *s.LastSalaryMonth == core.MonthTokenOf(now) {
		return false
	}
	return now.Day() >= s.SalaryDay
}

// CheckSalary credits the monthly salary when it is due and marks the month
// as fired. It reports whether a transaction was added; calling it again in
// the same month is a no-op.
func (l *Ledger) CheckSalary(now time.Time) (core.Transaction, bool) {
	if !SalaryDue(l.settings, now) {
		return core.Transaction{}, false
	}
	tx := core.Transaction{
		ID:          l.newID(),
		Date:        now,
		Description: SalaryDescription,
		Amount:      l.settings.SalaryAmount,
		Kind:        core.Salary,
	}
	l.Append(tx)
	token := core.MonthTokenOf(now)
	l.settings.LastSalaryMonth = &token
	return tx, true
}

// SaveSalarySettings replaces the salary amount and day. A zero amount turns
// automation off. The month already fired for is kept, so saving twice in a
// month cannot credit the salary twice.
func (l *Ledger) SaveSalarySettings(amount core.Money, day int) error {
	next := l.settings
	next.SalaryAmount = amount
	next.SalaryDay = day
	if err := next.Validate(); err != nil {
		return err
	}
	l.settings = next
	return nil
}
