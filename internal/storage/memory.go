package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"debttracker/internal/core"
)

// MemoryStore keeps encoded snapshots in a map. It behaves like the
// browser key-value store the ledger was first persisted in: values are
// opaque bytes under StorageKey(user).
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, user string) (core.Snapshot, error) {
	s.mu.RLock()
	raw, ok := s.data[StorageKey(user)]
	s.mu.RUnlock()
	if !ok {
		return core.EmptySnapshot(), nil
	}
	return decodeStored(ctx, user, raw), nil
}

func (s *MemoryStore) Save(_ context.Context, user string, snap core.Snapshot) error {
	raw, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[StorageKey(user)] = raw
	s.mu.Unlock()
	return nil
}

// SetRaw stores bytes under key as-is. It lets callers seed legacy or
// damaged payloads.
func (s *MemoryStore) SetRaw(key string, raw []byte) {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), raw...)
	s.mu.Unlock()
}

func (s *MemoryStore) Users(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.data))
	for key := range s.data {
		if user, ok := strings.CutPrefix(key, KeyPrefix); ok {
			users = append(users, user)
		}
	}
	sort.Strings(users)
	return users, nil
}

func (s *MemoryStore) Close() error { return nil }
