package storage

import (
	"context"
	"sync"

	"github.com/mroshb/trivia_bot/internal/models"
)

// MemoryStore keeps the document in process memory. Used for development runs
// and tests.
type MemoryStore struct {
	mu    sync.Mutex
	doc   *models.Document
	saves int
}

func NewMemoryStore(seed *models.Document) *MemoryStore {
	s := &MemoryStore{}
	if seed != nil {
		s.doc = seed.Clone()
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return models.DefaultDocument(), nil
	}
	return s.doc.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close() error {
	return nil
}
