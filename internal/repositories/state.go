package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/internal/storage"
	"github.com/mroshb/trivia_bot/pkg/errors"
	"github.com/mroshb/trivia_bot/pkg/logger"
)

const saveTimeout = 10 * time.Second

// State owns the in-memory document and writes it through to the store after
// every mutation. Memory stays authoritative: a failed write marks the state
// dirty and is retried by Flush.
type State struct {
	mu    sync.RWMutex
	doc   *models.Document
	store storage.Store
	dirty bool

	alertMu sync.RWMutex
	alert   func(error)
}

// LoadState reads the document from store.
func LoadState(ctx context.Context, store storage.Store) (*State, error) {
	doc, err := store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePersistence, "failed to load document")
	}
	doc.Normalize()
	return &State{doc: doc, store: store}, nil
}

// OnPersistFailure registers a callback invoked when a write first fails after
// a successful one. It runs outside the state lock.
func (s *State) OnPersistFailure(fn func(error)) {
	s.alertMu.Lock()
	defer s.alertMu.Unlock()
	s.alert = fn
}

// Read gives fn read access to the document. fn must not retain or modify it.
func (s *State) Read(fn func(doc *models.Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.doc)
}

// Mutate applies fn and saves the result. If fn returns an error the document
// must be left untouched and nothing is written. A PERSISTENCE_FAILED error
// means the change was applied in memory but not yet stored.
func (s *State) Mutate(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	if err := fn(s.doc); err != nil {
		s.mu.Unlock()
		return err
	}

	err := s.saveLocked()
	firstFailure := err != nil && !s.dirty
	if err != nil {
		s.dirty = true
	} else {
		s.dirty = false
	}
	s.mu.Unlock()

	if err == nil {
		return nil
	}

	logger.Error("Failed to persist document", "error", err)
	if firstFailure {
		s.notify(err)
	}
	return errors.Wrap(err, errors.ErrCodePersistence, "change kept in memory but not saved")
}

// Flush writes the document if an earlier save failed.
func (s *State) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := s.store.Save(ctx, s.doc.Clone()); err != nil {
		return errors.Wrap(err, errors.ErrCodePersistence, "retry save failed")
	}
	s.dirty = false
	logger.Info("Pending document changes saved")
	return nil
}

// RunFlusher retries pending writes every interval until ctx is done, then
// makes one last attempt.
func (s *State) RunFlusher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), saveTimeout)
			if err := s.Flush(final); err != nil {
				logger.Error("Final save failed", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				logger.Warn("Retry save failed", "error", err)
			}
		}
	}
}

func (s *State) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Snapshot returns a deep copy of the document.
func (s *State) Snapshot() *models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

func (s *State) saveLocked() error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	return s.store.Save(ctx, s.doc.Clone())
}

func (s *State) notify(err error) {
	s.alertMu.RLock()
	alert := s.alert
	s.alertMu.RUnlock()
	if alert != nil {
		alert(err)
	}
}
