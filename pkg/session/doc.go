/*
Package session keeps the open documents of a server process.

Each document owns an undo manager that must only be driven by one command at a
time. The Manager serializes access per document with a reference counted local lock
and, when configured, a distributed lock so that several replicas can share a
backup store.
*/
package session
