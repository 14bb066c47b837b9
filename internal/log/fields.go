package log

import (
	"debttracker/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldUser          = "user"
	FieldTransactionID = "transaction_id"
	FieldFriendID      = "friend_id"
	FieldKind          = "type"
	FieldAmountCents   = "amount_cents"
	FieldEvent         = "event"
	FieldMonth         = "month"
	FieldSheetsRef     = "sheets_ref"
	FieldBackend       = "backend"
	FieldOperation     = "operation"
	FieldError         = "error"
)

// Components
const (
	ComponentApp     = "app"
	ComponentSalary  = "salary"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
)

// Operations
const (
	OpRecord   = "record"
	OpSettle   = "settle"
	OpSalary   = "salary"
	OpSync     = "sync"
	OpBackfill = "backfill"
)

// LogFields collects structured attributes before handing them to slog.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithUser(user string) LogFields {
	f[FieldUser] = user
	return f
}

// WithError is a no-op for nil errors.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the identifying fields of a transaction. Split and
// plain transactions carry no friend id.
func (f LogFields) WithTransaction(tx core.Transaction) LogFields {
	f[FieldTransactionID] = string(tx.ID)
	f[FieldKind] = string(tx.Kind)
	f[FieldAmountCents] = tx.Amount.Cents
	if tx.FriendID != nil {
		f[FieldFriendID] = string(*tx.FriendID)
	}
	return f
}

// ToSlice converts LogFields to alternating key/value args for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
