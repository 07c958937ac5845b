package gaphor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/esantoro/gaphor/internal/logging"
	"github.com/esantoro/gaphor/pkg/backup"
	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/model"
	"github.com/esantoro/gaphor/pkg/ports"
	"github.com/esantoro/gaphor/pkg/storage"
	"github.com/esantoro/gaphor/pkg/undo"
)

// Version is the current release.
var Version = "0.1.0"

// Application wires one model to its undo manager and, optionally, a backup service.
// It replaces process-wide state: construct one per open document and pass it (or its
// Manager) to every mutation site and command handler.
//
// An Application is not safe for concurrent use; see pkg/session for serialized access.
type Application struct {
	ID      string
	Manager *undo.Manager
	Factory *model.Factory
	Backup  *backup.Service

	store         ports.SnapshotStore
	hooks         domain.LifecycleHooks
	stackLimit    int
	restoreOnInit bool
	backupOnClose bool
	idGenerator   func() string
	logger        *slog.Logger
	initialized   bool
}

// Option defines a functional option for configuring the Application.
type Option func(*Application)

// WithID names the document. It is used as the backup key and in logs.
func WithID(id string) Option {
	return func(a *Application) {
		a.ID = id
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) {
		a.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on the undo manager.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Application) {
		a.hooks = a.hooks.Merge(hooks)
	}
}

// WithStackLimit bounds the undo stack (0 = unlimited).
func WithStackLimit(n int) Option {
	return func(a *Application) {
		a.stackLimit = n
	}
}

// WithStore enables the backup service on the given snapshot store.
// When restore is set, Init loads the existing backup; when backupOnClose is set,
// Shutdown writes a backup if the model changed.
func WithStore(store ports.SnapshotStore, restore, backupOnClose bool) Option {
	return func(a *Application) {
		a.store = store
		a.restoreOnInit = restore
		a.backupOnClose = backupOnClose
	}
}

// WithIDGenerator overrides the element ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(a *Application) {
		a.idGenerator = gen
	}
}

// New builds an Application. Call Init before use and Shutdown when done.
func New(opts ...Option) *Application {
	a := &Application{ID: "default"}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	a.logger = a.logger.With("document", a.ID)

	a.Manager = undo.New(
		undo.WithLogger(a.logger),
		undo.WithHooks(a.hooks),
		undo.WithStackLimit(a.stackLimit),
	)

	factoryOpts := []model.Option{
		model.WithRecorder(a.Manager),
		model.WithLogger(a.logger),
	}
	if a.idGenerator != nil {
		factoryOpts = append(factoryOpts, model.WithIDGenerator(a.idGenerator))
	}
	a.Factory = model.NewFactory(factoryOpts...)

	if a.store != nil {
		a.Backup = backup.New(a.Factory, a.store,
			backup.WithKey(a.ID),
			backup.WithHistory(a.Manager),
			backup.WithLogger(a.logger),
		)
	}
	return a
}

// Init prepares the application. With a store configured for restore, the last
// backup is loaded; a missing backup is not an error.
func (a *Application) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if a.Backup != nil && a.restoreOnInit {
		err := a.Backup.Restore(ctx)
		if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
			return fmt.Errorf("init %s: %w", a.ID, err)
		}
	}
	a.initialized = true
	a.logger.Debug("application initialized", "elements", a.Factory.Size())
	return nil
}

// Shutdown closes any open transaction (committing it), writes a final backup if
// configured and needed, and releases observers.
func (a *Application) Shutdown(ctx context.Context) error {
	for a.Manager.InTransaction() {
		a.logger.Warn("shutting down with an open transaction, committing it")
		a.Manager.CommitTransaction()
	}

	var err error
	if a.Backup != nil {
		if a.backupOnClose && a.Backup.Dirty() {
			err = a.Backup.Backup(ctx)
		}
		a.Backup.Close()
	}
	a.initialized = false
	return err
}

// Do runs fn as one undoable user operation.
func (a *Application) Do(fn func(f *model.Factory) error) error {
	return a.Manager.Undoable(func() error {
		return fn(a.Factory)
	})
}

// Undo reverts the last transaction.
func (a *Application) Undo() {
	a.Manager.UndoTransaction()
}

// Redo re-applies the last undone transaction.
func (a *Application) Redo() {
	a.Manager.RedoTransaction()
}

// Status is a read-only summary for UI layers.
type Status struct {
	Document      string `json:"document"`
	InTransaction bool   `json:"in_transaction"`
	CanUndo       bool   `json:"can_undo"`
	CanRedo       bool   `json:"can_redo"`
	UndoDepth     int    `json:"undo_depth"`
	RedoDepth     int    `json:"redo_depth"`
	Elements      int    `json:"elements"`
	Dirty         bool   `json:"dirty"`
}

// Status reports what the UI needs to enable or disable its controls.
func (a *Application) Status() Status {
	s := Status{
		Document:      a.ID,
		InTransaction: a.Manager.InTransaction(),
		CanUndo:       a.Manager.CanUndo(),
		CanRedo:       a.Manager.CanRedo(),
		UndoDepth:     a.Manager.UndoDepth(),
		RedoDepth:     a.Manager.RedoDepth(),
		Elements:      a.Factory.Size(),
	}
	if a.Backup != nil {
		s.Dirty = a.Backup.Dirty()
	}
	return s
}

// Load replaces the model with the document read from r and clears the history.
func (a *Application) Load(r io.Reader) error {
	if err := storage.Load(r, a.Factory); err != nil {
		return err
	}
	a.Manager.ClearHistory()
	return nil
}

// Save writes the model to w.
func (a *Application) Save(w io.Writer) error {
	return storage.Save(w, a.Factory)
}
