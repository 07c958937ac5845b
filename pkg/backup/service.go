// Package backup keeps a restorable copy of a model in a snapshot store.
//
// The service observes the model factory to know whether a new backup is needed. It
// persists model data only: restoring a backup drops the undo history, which refers to
// elements as they were before the restore.
package backup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/esantoro/gaphor/internal/logging"
	"github.com/esantoro/gaphor/pkg/model"
	"github.com/esantoro/gaphor/pkg/ports"
)

// DefaultKey is the snapshot key used when none is configured.
const DefaultKey = "backup"

// History is the part of the undo manager the service resets after a restore.
type History interface {
	ClearHistory()
}

// Service backs up and restores one model.
type Service struct {
	factory *model.Factory
	store   ports.SnapshotStore
	history History
	key     string
	logger  *slog.Logger

	dirty       bool
	restoring   bool
	unsubscribe func()
}

// Option configures a Service.
type Option func(*Service)

// WithKey sets the snapshot key (e.g. the document ID).
func WithKey(key string) Option {
	return func(s *Service) {
		s.key = key
	}
}

// WithHistory sets the undo history to clear after a restore.
func WithHistory(h History) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a backup service and starts observing the factory.
func New(factory *model.Factory, store ports.SnapshotStore, opts ...Option) *Service {
	s := &Service{
		factory: factory,
		store:   store,
		key:     DefaultKey,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = factory.Subscribe(s.observe)
	return s
}

func (s *Service) observe(ev model.Event) {
	if s.restoring {
		return
	}
	s.dirty = true
}

// Dirty reports whether the model changed since the last backup or restore.
func (s *Service) Dirty() bool {
	return s.dirty
}

// Key returns the snapshot key.
func (s *Service) Key() string {
	return s.key
}

// Backup stores a snapshot of the current model.
func (s *Service) Backup(ctx context.Context) error {
	snap := s.factory.Snapshot()
	if err := s.store.Save(ctx, s.key, snap); err != nil {
		return fmt.Errorf("backup %s: %w", s.key, err)
	}
	s.dirty = false
	s.logger.Info("model backed up", "key", s.key, "elements", len(snap.Elements))
	return nil
}

// Restore replaces the model with the last backup and clears the undo history.
// It returns domain.ErrSnapshotNotFound (wrapped) if no backup exists.
func (s *Service) Restore(ctx context.Context) error {
	snap, err := s.store.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("restore %s: %w", s.key, err)
	}

	s.restoring = true
	err = s.factory.Replace(snap)
	s.restoring = false
	if err != nil {
		return fmt.Errorf("restore %s: %w", s.key, err)
	}

	if s.history != nil {
		s.history.ClearHistory()
	}
	s.dirty = false
	s.logger.Info("model restored", "key", s.key, "elements", len(snap.Elements))
	return nil
}

// Close stops observing the factory.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
