/*
Package domain contains the core contracts of the gaphor undo engine.

It defines what a reversible edit is, how failures are classified, and which events the
engine reports. This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Action: a single reversible edit with Undo and Redo.
  - TransactionError: structural misuse of the manager (discarding with nothing open).
  - ActionFailure: a record that failed during playback. Logged, never surfaced.
  - LifecycleHooks: callbacks used by metrics and auditing.
*/
package domain
