/*
Package gaphor provides a transactional undo/redo engine for object models.

Every mutation of the model registers a reversible action with the undo manager. Actions
are grouped into transactions: nested begin/commit pairs collapse into a single
transaction that is undone and redone as one unit.

# Concept

An Application bundles one model (pkg/model), its undo manager (pkg/undo) and an
optional backup service (pkg/backup). Hosts (CLI, HTTP server, MCP server) drive it
through user commands: run an operation, undo, redo, inspect status.

# Key Features

  - Nested transactions: composite edits made of other edits are undone at once.
  - Strict LIFO history: undo replays newest-first, redo oldest-first.
  - Best-effort playback: one broken action never blocks the others.
  - Explicit lifecycle: no globals; Init and Shutdown bracket the application.

# Usage

	app := gaphor.New(gaphor.WithID("doc-1"))
	if err := app.Init(ctx); err != nil {
		log.Fatal(err)
	}
	defer app.Shutdown(ctx)

	err := app.Do(func(f *model.Factory) error {
		c, err := f.Create("Class")
		if err != nil {
			return err
		}
		return f.SetAttribute(c.ID(), "name", "Customer")
	})

	app.Undo() // the class is gone
	app.Redo() // and back, with its name
*/
package gaphor
