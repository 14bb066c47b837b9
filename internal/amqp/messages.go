package amqp

import (
	"encoding/json"
	"time"

	"debttracker/internal/core"
)

// Event names what changed in a ledger.
type Event string

const (
	EventTransactionRecorded Event = "transaction.recorded"
	EventFriendAdded         Event = "friend.added"
	EventSettingsSaved       Event = "settings.saved"
)

// LedgerEventMessage announces a ledger change. It carries identifiers only;
// consumers load the stored snapshot for the details.
type LedgerEventMessage struct {
	Event         Event     `json:"event"`
	User          string    `json:"user"`
	TransactionID core.ID   `json:"transactionId,omitempty"`
	Kind          core.Kind `json:"kind,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionMessage creates a message for a newly recorded transaction.
func NewTransactionMessage(user string, tx core.Transaction) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:         EventTransactionRecorded,
		User:          user,
		TransactionID: tx.ID,
		Kind:          tx.Kind,
		Timestamp:     time.Now(),
	}
}

// NewLedgerMessage creates a message for a change that adds no transaction.
func NewLedgerMessage(user string, event Event) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:     event,
		User:      user,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
