package index

import (
	"sync"

	apperrors "github.com/devashish-g/titleseek/pkg/errors"
)

// Store is the append-only document store. Ids are assigned by a counter
// owned by the store, sequentially from 0, and are never reused. There is no
// delete or update: a document is written once and read for the rest of the
// process lifetime.
type Store struct {
	mu     sync.RWMutex
	docs   map[uint32]string
	nextID uint32
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[uint32]string)}
}

// Add stores the raw document text and returns its freshly assigned id.
func (s *Store) Add(text string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.docs[id] = text
	return id
}

// Get returns the raw text for id, or ErrDocumentNotFound.
func (s *Store) Get(id uint32) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[id]
	if !ok {
		return "", apperrors.ErrDocumentNotFound
	}
	return text, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// restore replaces the store contents wholesale. Only the snapshot loader
// uses it, before serving begins.
func (s *Store) restore(docs map[uint32]string, nextID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
	s.nextID = nextID
}

// snapshot returns a copy of the stored documents and the next id.
func (s *Store) snapshot() (map[uint32]string, uint32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make(map[uint32]string, len(s.docs))
	for id, text := range s.docs {
		docs[id] = text
	}
	return docs, s.nextID
}
