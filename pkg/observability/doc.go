/*
Package observability provides tools for monitoring the undo engine.

Both Metrics and AuditHooks plug into the manager through domain.LifecycleHooks, so the
engine itself never depends on Prometheus or on a particular logger setup.
*/
package observability
