package ledger

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"debttracker/internal/core"
)

// Window selects the transactions a view is computed over.
type Window string

const (
	AllTime    Window = "all"
	ThisMonth  Window = "this_month"
	LastMonth  Window = "last_month"
	Last30Days Window = "30days"
	LastYear   Window = "1year"
)

const (
	lendCategory  = "Lending"
	otherCategory = "Other"
)

// endOfTime bounds open-ended windows.
var endOfTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// ParseWindow maps a filter value to a Window. An empty value means AllTime.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.TrimSpace(s)); w {
	case "":
		return AllTime, nil
	case AllTime, ThisMonth, LastMonth, Last30Days, LastYear:
		return w, nil
	default:
		return "", fmt.Errorf("unknown window %q", s)
	}
}

// Range returns the inclusive bounds of the window relative to now. Calendar
// months are taken in now's location. Rolling windows have no upper bound.
func (w Window) Range(now time.Time) (time.Time, time.Time) {
	loc := now.Location()
	y, m, _ := now.Date()
	switch w {
	case ThisMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	case LastMonth:
		start := time.Date(y, m-1, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	case Last30Days:
		return now.AddDate(0, 0, -30), endOfTime
	case LastYear:
		return now.AddDate(-1, 0, 0), endOfTime
	default:
		return time.Time{}, endOfTime
	}
}

// Filter keeps transactions dated inside the window, preserving order.
func Filter(txs []core.Transaction, w Window, now time.Time) []core.Transaction {
	start, end := w.Range(now)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Categorizer derives a reporting category from a free-text description.
// There is no category field on transactions, so any implementation is a
// heuristic rather than a taxonomy.
type Categorizer interface {
	Category(description string) string
}

// CategorizerFunc adapts a function to Categorizer.
type CategorizerFunc func(description string) string

func (f CategorizerFunc) Category(description string) string { return f(description) }

// DescriptionCategorizer uses the description itself as the category.
var DescriptionCategorizer Categorizer = CategorizerFunc(func(description string) string {
	if d := strings.TrimSpace(description); d != "" {
		return d
	}
	return otherCategory
})

// KeywordRule maps any of its keywords (case-insensitive substrings) to Label.
type KeywordRule struct {
	Label    string
	Keywords []string
}

// KeywordCategorizer applies rules in order; the first match wins.
type KeywordCategorizer struct {
	Rules    []KeywordRule
	Fallback string
}

func (k KeywordCategorizer) Category(description string) string {
	d := strings.ToLower(description)
	for _, r := range k.Rules {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(d, strings.ToLower(kw)) {
				return r.Label
			}
		}
	}
	if k.Fallback != "" {
		return k.Fallback
	}
	return otherCategory
}

// Report is the income/expense overview for one window.
type Report struct {
	Window     Window
	From, To   time.Time
	Income     core.Money
	Expense    core.Money
	ByCategory []core.CategoryAmount
}

// Savings is income minus expense.
func (r Report) Savings() core.Money {
	return r.Income.Sub(r.Expense)
}

// TopCategories returns at most n categories, largest first.
func (r Report) TopCategories(n int) []core.CategoryAmount {
	if n < 0 || n > len(r.ByCategory) {
		n = len(r.ByCategory)
	}
	return append([]core.CategoryAmount(nil), r.ByCategory[:n]...)
}

// Share returns the category's percentage of total expense, rounded.
func (r Report) Share(c core.CategoryAmount) int {
	if !r.Expense.IsPositive() {
		return 0
	}
	return int(math.Round(float64(c.Amount.Cents) * 100 / float64(r.Expense.Cents)))
}

// BuildReport aggregates the window's cash flow. Loans count as expense
// under "Lending" and repayments as income; splits are not cash flow.
func BuildReport(txs []core.Transaction, w Window, now time.Time, c Categorizer) Report {
	if c == nil {
		c = DescriptionCategorizer
	}
	from, to := w.Range(now)
	r := Report{Window: w, From: from, To: to}
	totals := map[string]int64{}
	for _, tx := range Filter(txs, w, now) {
		switch tx.Kind {
		case core.Income, core.Salary, core.Repayment:
			r.Income = r.Income.Add(tx.Amount)
		case core.Expense:
			r.Expense = r.Expense.Add(tx.Amount)
			totals[c.Category(tx.Description)] += tx.Amount.Cents
		case core.Lend:
			r.Expense = r.Expense.Add(tx.Amount)
			totals[lendCategory] += tx.Amount.Cents
		}
	}
	for name, cents := range totals {
		r.ByCategory = append(r.ByCategory, core.CategoryAmount{Name: name, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(r.ByCategory, func(i, j int) bool {
		a, b := r.ByCategory[i], r.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return r
}
