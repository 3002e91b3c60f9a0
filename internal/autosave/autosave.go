// Package autosave persists the open document after editing pauses.
package autosave

import (
	"sync"
	"time"

	"github.com/prosewrites/draftline/internal/store"
	"github.com/prosewrites/draftline/internal/suggest"
	"go.uber.org/zap"
)

// Saver writes a document.
type Saver interface {
	Save(doc *store.Document) error
}

// Scheduler debounces saves of a single document.
type Scheduler struct {
	gate   *suggest.Gate
	saver  Saver
	logger *zap.Logger

	mu    sync.Mutex
	doc   store.Document
	dirty bool
	saved func(err error)
}

// Config holds configuration for creating a Scheduler.
type Config struct {
	// Document is the document being edited.
	Document store.Document

	// Saver persists the document.
	Saver Saver

	// Delay is the quiet period before saving. Defaults to 2s if not set.
	Delay time.Duration

	// OnSaved is called after every save attempt.
	OnSaved func(err error)

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// NewScheduler creates a new Scheduler with the given configuration.
func NewScheduler(cfg Config) *Scheduler {
	delay := cfg.Delay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		gate:   suggest.NewGate(delay),
		saver:  cfg.Saver,
		logger: logger,
		doc:    cfg.Document,
		saved:  cfg.OnSaved,
	}
}

// Schedule records new content and restarts the quiet period.
// Its signature matches suggest.Config.OnChange.
func (s *Scheduler) Schedule(title, body string) {
	s.mu.Lock()
	if s.doc.Title == title && s.doc.Body == body && !s.dirty {
		s.mu.Unlock()
		return
	}
	s.doc.Title = title
	s.doc.Body = body
	s.dirty = true
	s.mu.Unlock()

	ctx := s.gate.Arm()
	go func() {
		if !s.gate.Wait(ctx) {
			return
		}
		_ = s.Flush()
	}()
}

// Flush saves pending changes immediately.
func (s *Scheduler) Flush() error {
	s.gate.Cancel()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	doc := s.doc
	s.dirty = false
	s.mu.Unlock()

	err := s.saver.Save(&doc)
	if err != nil {
		s.logger.Warn("autosave failed", zap.String("id", doc.ID), zap.Error(err))
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	} else {
		s.logger.Debug("autosaved document", zap.String("id", doc.ID))
		// The first save of a new document inserts it, which sets CreatedAt
		// on the copy only. Keep the stored timestamps so later saves do not
		// overwrite them with zero values.
		s.mu.Lock()
		s.doc.CreatedAt = doc.CreatedAt
		s.doc.UpdatedAt = doc.UpdatedAt
		s.mu.Unlock()
	}

	if s.saved != nil {
		s.saved(err)
	}

	return err
}

// Dirty reports whether there are unsaved changes.
func (s *Scheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Document returns a copy of the document as last scheduled.
func (s *Scheduler) Document() store.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}
