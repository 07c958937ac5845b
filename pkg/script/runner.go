package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/esantoro/gaphor"
	"github.com/esantoro/gaphor/internal/logging"
	"github.com/esantoro/gaphor/pkg/model"
)

// ErrNoBackup is returned by backup and restore steps when the application has no store.
var ErrNoBackup = errors.New("backup not configured")

// ErrUnknownAlias is returned when a "$alias" reference was never bound.
var ErrUnknownAlias = errors.New("unknown alias")

// StepError reports which step of a script failed.
type StepError struct {
	Index int
	Op    Op
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result summarizes a script run.
type Result struct {
	Steps   int               `json:"steps"`
	Created []string          `json:"created,omitempty"`
	Aliases map[string]string `json:"aliases,omitempty"`
}

// Runner applies scripts to an Application.
type Runner struct {
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes steps in order and stops at the first failing step.
//
// Each mutation step is its own user operation unless an explicit begin is open, in
// which case it joins that transaction. Transactions left open at the end stay open.
func (r *Runner) Run(ctx context.Context, app *gaphor.Application, steps []Step) (*Result, error) {
	res := &Result{Aliases: map[string]string{}}
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.step(ctx, app, s, res); err != nil {
			r.logger.Debug("script step failed", "index", i, "op", s.Op, "err", err)
			return res, &StepError{Index: i, Op: s.Op, Err: err}
		}
		res.Steps++
	}
	return res, nil
}

func (r *Runner) step(ctx context.Context, app *gaphor.Application, s Step, res *Result) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m := app.Manager
	switch s.Op {
	case OpBegin:
		m.BeginTransaction()
		return nil
	case OpCommit:
		m.CommitTransaction()
		return nil
	case OpDiscard:
		return m.DiscardTransaction()
	case OpUndo:
		m.UndoTransaction()
		return nil
	case OpRedo:
		m.RedoTransaction()
		return nil
	case OpBackup:
		if app.Backup == nil {
			return ErrNoBackup
		}
		return app.Backup.Backup(ctx)
	case OpRestore:
		if app.Backup == nil {
			return ErrNoBackup
		}
		return app.Backup.Restore(ctx)
	}

	id, err := resolve(res.Aliases, s.ID)
	if err != nil {
		return err
	}
	ref, err := resolve(res.Aliases, s.Ref)
	if err != nil {
		return err
	}

	return app.Do(func(f *model.Factory) error {
		switch s.Op {
		case OpCreate:
			var e *model.Element
			var err error
			if id != "" {
				e, err = f.CreateWithID(id, s.Kind)
			} else {
				e, err = f.Create(s.Kind)
			}
			if err != nil {
				return err
			}
			res.Created = append(res.Created, e.ID())
			if s.As != "" {
				res.Aliases[s.As] = e.ID()
			}
			return nil
		case OpSet:
			return f.SetAttribute(id, s.Key, s.Value)
		case OpUnset:
			return f.UnsetAttribute(id, s.Key)
		case OpAdd:
			return f.AddTo(id, s.Collection, ref)
		case OpRemove:
			return f.RemoveFrom(id, s.Collection, ref)
		case OpDelete:
			return f.Delete(id)
		}
		return fmt.Errorf("%w: unknown op %q", ErrInvalidStep, s.Op)
	})
}

func resolve(aliases map[string]string, v string) (string, error) {
	name, ok := strings.CutPrefix(v, "$")
	if !ok {
		return v, nil
	}
	id, ok := aliases[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAlias, name)
	}
	return id, nil
}
