package database

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore keeps documents in process. Used for local development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	docs    map[string]*Document
	counter int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

func (s *MemoryStore) Get(_ context.Context, path string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	content := make([]byte, len(doc.Content))
	copy(content, doc.Content)
	return &Document{Content: content, Revision: doc.Revision}, nil
}

func (s *MemoryStore) Put(_ context.Context, path string, content []byte, revision string, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.docs[path]
	switch {
	case revision == "" && exists:
		return "", ErrConflict
	case revision != "" && !exists:
		return "", ErrNotFound
	case revision != "" && current.Revision != revision:
		return "", ErrConflict
	}

	s.counter++
	stored := make([]byte, len(content))
	copy(stored, content)
	rev := "rev-" + strconv.Itoa(s.counter)
	s.docs[path] = &Document{Content: stored, Revision: rev}
	return rev, nil
}
