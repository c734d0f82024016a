package longterm

import (
	"context"
	"sync"
)

// StubStore is a process-local Store used in tests and examples. It is not
// a production backend — durable storage is left to the deployment.
type StubStore struct {
	mu      sync.Mutex
	entries []Entry
}

func NewStubStore() *StubStore {
	return &StubStore{}
}

func (s *StubStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *StubStore) Retrieve(_ context.Context, userID, entryType string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.UserID != userID || e.Type != entryType {
			continue
		}
		matched = append(matched, e)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched, nil
}
