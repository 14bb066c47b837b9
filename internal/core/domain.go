package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income    Kind = "income"
	Salary    Kind = "salary"
	Expense   Kind = "expense"
	Lend      Kind = "lend"
	Repayment Kind = "repayment"
	Split     Kind = "split"
)


type (
	Kind string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          ID            `json:"id"`
		Date        time.Time     `json:"date"`
		Description string        `json:"desc"`
		Amount      Money         `json:"amount"`
		Kind        Kind          `json:"type"`
		FriendID    *ID           `json:"friendId,omitempty"`
		Split       *SplitDetails `json:"splitDetails,omitempty"`
	}

	SplitDetails struct {
		TotalParticipants int   `json:"totalParticipants"`
		AmountPerPerson   Money `json:"amountPerPerson"`
		InvolvedFriendIDs []ID  `json:"involvedFriendIds"`
		IncludedSelf      bool  `json:"includedMe"`
	}

	// Friend is a counterparty. A positive balance means the friend owes the
	// ledger owner; negative balances only come from over-repayment.
	Friend struct {
		ID      ID     `json:"id"`
		Name    string `json:"name"`
		Balance Money  `json:"balance"`
	}

	Settings struct {
		SalaryAmount    Money       `json:"salaryAmount"`
		SalaryDay       int         `json:"salaryDate"`
		LastSalaryMonth *MonthToken `json:"lastSalaryMonth"`
	}

	// Snapshot is the persisted state of one user's ledger. Transactions are
	// ordered newest first.
	Snapshot struct {
		Transactions []Transaction `json:"transactions"`
		Friends      []Friend      `json:"friends"`
		Settings     Settings      `json:"settings"`
	}

	// MonthToken identifies a calendar month as "YYYY-M" (month not zero-padded).
	MonthToken string

	// ExportRow is one transaction flattened for CSV and spreadsheet sinks.
	ExportRow struct {
		Date        string
		Description string
		Type        string
		Amount      string
		Friend      string
	}
)

// SplitGroupLabel stands in for the counterparty of split transactions.
const SplitGroupLabel = "Split Group"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrAmountTooLarge      = fmt.Errorf("amount exceeds the maximum of %s", MaxAmount)
	ErrBalanceOverflow     = errors.New("balance would overflow")
	ErrEmptyName           = errors.New("empty name")
	ErrUnknownKind         = errors.New("unknown transaction type")
	ErrMissingCounterparty = errors.New("missing counterparty")
	ErrNoParticipants      = errors.New("no split participants selected")
	ErrInvalidShape        = errors.New("transaction fields do not match its type")
	ErrInvalidSalaryDay    = errors.New("salary day must be between 1 and 31")
	ErrNothingToSettle     = errors.New("nothing to settle")
)

var kinds = []Kind{Income, Salary, Expense, Lend, Repayment, Split}

// Kinds lists every transaction type.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// CashSign is +1 for kinds that add to the wallet, -1 for kinds that take from
// it and 0 for split, whose effect lives entirely in friend debts.
func (k Kind) CashSign() int {
	switch k {
	case Income, Salary, Repayment:
		return 1
	case Expense, Lend:
		return -1
	default:
		return 0
	}
}

// NeedsCounterparty reports whether the kind addresses a single friend.
func (k Kind) NeedsCounterparty() bool {
	return k == Lend || k == Repayment
}

// MonthTokenOf returns the month token for t in t's location.
func MonthTokenOf(t time.Time) MonthToken {
	return MonthToken(fmt.Sprintf("%d-%d", t.Year(), int(t.Month())))
}

func (t MonthToken) String() string { return string(t) }

// DefaultSettings is the state of a fresh ledger: automation disabled,
// salary day 1, never fired.
func DefaultSettings() Settings {
	return Settings{SalaryDay: 1}
}

// EmptySnapshot returns a ledger with no transactions, no friends and
// default settings.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Transactions: []Transaction{},
		Friends:      []Friend{},
		Settings:     DefaultSettings(),
	}
}

// Validate accepts positive amounts up to MaxAmount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmount.Cents {
		return ErrAmountTooLarge
	}
	return nil
}

// ValidateDescription checks a free-text label.
func ValidateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	return nil
}

// Validate checks the transaction on its own; it does not know which friends
// exist.
func (t Transaction) Validate() error {
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if !t.Kind.Valid() {
		return &ValidationError{Field: "type", Err: ErrUnknownKind}
	}
	switch {
	case t.Kind.NeedsCounterparty():
		if t.FriendID == nil || *t.FriendID == "" || t.Split != nil {
			return &ValidationError{Field: "type", Err: ErrInvalidShape}
		}
	case t.Kind == Split:
		if t.Split == nil || t.FriendID != nil {
			return &ValidationError{Field: "type", Err: ErrInvalidShape}
		}
		if t.Split.TotalParticipants <= 0 {
			return &ValidationError{Field: "splitDetails", Err: ErrNoParticipants}
		}
	default:
		if t.FriendID != nil || t.Split != nil {
			return &ValidationError{Field: "type", Err: ErrInvalidShape}
		}
	}
	return nil
}

func (s Settings) Validate() error {
	if s.SalaryAmount.IsNegative() {
		return &ValidationError{Field: "salaryAmount", Err: ErrInvalidAmount}
	}
	if s.SalaryAmount.Cents > MaxAmount.Cents {
		return &ValidationError{Field: "salaryAmount", Err: ErrAmountTooLarge}
	}
	if s.SalaryDay < 1 || s.SalaryDay > 31 {
		return &ValidationError{Field: "salaryDate", Err: ErrInvalidSalaryDay}
	}
	return nil
}
