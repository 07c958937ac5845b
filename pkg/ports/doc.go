/*
Package ports defines the driven ports (interfaces) of the gaphor undo engine.

These interfaces decouple the core logic from external implementations, allowing the
engine to work with various storage backends and lock providers.

# Key Interfaces

  - UndoRecorder: what mutation sites need to register reversible actions.
  - TransactionManager: the begin/commit/discard/undo/redo surface used by commands.
  - SnapshotStore: persists model snapshots for the backup service.
  - DistributedLocker: serializes access to a document across replicas.
*/
package ports
