// Package storage persists ledger snapshots keyed by user identity.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"debttracker/internal/core"
)

// KeyPrefix is prepended to the user identity to form the storage key.
const KeyPrefix = "debtTrackerData_"

// ErrCorruptSnapshot marks stored data that could not be decoded.
var ErrCorruptSnapshot = errors.New("corrupt ledger snapshot")

// StorageKey returns the key a user's ledger is stored under.
func StorageKey(user string) string {
	return KeyPrefix + user
}

// EncodeSnapshot serializes a snapshot to JSON.
func EncodeSnapshot(snap core.Snapshot) ([]byte, error) {
	data, err := json.Marshal(normalize(snap))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses stored data. Empty data yields the default snapshot.
// Undecodable data also yields the default snapshot together with an error
// wrapping ErrCorruptSnapshot, so callers can carry on with a fresh ledger.
func DecodeSnapshot(data []byte) (core.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return core.EmptySnapshot(), nil
	}
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.EmptySnapshot(), fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return normalize(snap), nil
}

func normalize(snap core.Snapshot) core.Snapshot {
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	if snap.Friends == nil {
		snap.Friends = []core.Friend{}
	}
	if snap.Settings.SalaryDay == 0 {
		snap.Settings.SalaryDay = core.DefaultSettings().SalaryDay
	}
	return snap
}
