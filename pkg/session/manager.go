package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/esantoro/gaphor"
	"github.com/esantoro/gaphor/internal/logging"
	"github.com/esantoro/gaphor/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed document lock may be held.
const DefaultLockTTL = 30 * time.Second

// ErrInvalidDocumentID is returned for an empty document ID.
var ErrInvalidDocumentID = errors.New("invalid document id")

// Opener builds and initializes the Application for a document on first use.
type Opener func(ctx context.Context, id string) (*gaphor.Application, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager keeps one Application per open document and serializes every command
// against it. Undo managers are single-threaded; the Manager is what makes them
// safe to drive from concurrent HTTP or MCP requests.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	open Opener

	mu    sync.Mutex // Global lock for both maps
	locks map[string]*lockEntry
	docs  map[string]*gaphor.Application

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	onClose func(id string)
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithCloseHook registers fn to run after a document has been shut down.
func WithCloseHook(fn func(id string)) Option {
	return func(m *Manager) {
		m.onClose = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a document registry that opens documents with open.
func NewManager(open Opener, opts ...Option) *Manager {
	m := &Manager{
		open:    open,
		locks:   make(map[string]*lockEntry),
		docs:    make(map[string]*gaphor.Application),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithDocument runs fn with exclusive access to the document, opening it if needed.
func (m *Manager) WithDocument(ctx context.Context, id string, fn func(context.Context, *gaphor.Application) error) error {
	return m.withLock(ctx, id, func(ctx context.Context) error {
		app, err := m.get(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, app)
	})
}

// Close shuts the document down (final backup included) and forgets it.
// Closing a document that is not open is a no-op.
func (m *Manager) Close(ctx context.Context, id string) error {
	return m.withLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		app, ok := m.docs[id]
		delete(m.docs, id)
		m.mu.Unlock()

		if !ok {
			return nil
		}
		m.logger.Debug("closing document", "document", id)
		err := app.Shutdown(ctx)
		if m.onClose != nil {
			m.onClose(id)
		}
		return err
	})
}

// List returns the IDs of the open documents.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Shutdown closes every open document. All documents are attempted; errors are joined.
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	for _, id := range m.List() {
		if err := m.Close(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// get returns the open Application or opens it. The caller holds the document lock.
func (m *Manager) get(ctx context.Context, id string) (*gaphor.Application, error) {
	m.mu.Lock()
	app, ok := m.docs[id]
	m.mu.Unlock()
	if ok {
		return app, nil
	}

	app, err := m.open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", id, err)
	}
	if err := app.Init(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.docs[id] = app
	m.mu.Unlock()
	m.logger.Debug("document opened", "document", id)
	return app, nil
}

// withLock executes a function while holding the lock for the document.
func (m *Manager) withLock(ctx context.Context, id string, fn func(context.Context) error) error {
	if id == "" {
		return ErrInvalidDocumentID
	}

	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"document", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
