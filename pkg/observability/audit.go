package observability

import (
	"log/slog"

	"github.com/esantoro/gaphor/pkg/domain"
)

// AuditHooks returns lifecycle hooks that log every history change.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(ev *domain.TransactionEvent) {
		logger.Info("transaction "+string(ev.Type),
			"actions", ev.Actions,
			"undo_depth", ev.UndoDepth,
			"redo_depth", ev.RedoDepth,
		)
	}
	return domain.LifecycleHooks{
		OnCommit:  log,
		OnDiscard: log,
		OnUndo:    log,
		OnRedo:    log,
		OnClear:   log,
	}
}
