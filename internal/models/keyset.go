package models

import "time"

// KeySet is a durable mapping from IdentityKey to the timestamp it was
// last observed (checkpoint) or last delivered (ledger). Append-mostly:
// keys are added after every completed run and never pruned here.
type KeySet struct {
	LastUpdated time.Time            `json:"last_updated"`
	Keys        map[string]time.Time `json:"keys"`
}

// NewKeySet returns an empty key set.
func NewKeySet() *KeySet {
	return &KeySet{Keys: make(map[string]time.Time)}
}

// Contains reports whether the key has been recorded.
func (s *KeySet) Contains(key string) bool {
	_, ok := s.Keys[key]
	return ok
}

// Add records a key with the given timestamp. Re-adding an existing key
// refreshes its last-seen timestamp; keys are never removed.
func (s *KeySet) Add(key string, at time.Time) {
	if s.Keys == nil {
		s.Keys = make(map[string]time.Time)
	}
	s.Keys[key] = at
	s.LastUpdated = at
}

// Len returns the number of recorded keys.
func (s *KeySet) Len() int {
	return len(s.Keys)
}
