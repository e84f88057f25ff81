// Package memstore provides an ephemeral, thread-safe, in-memory
// implementation of registry.Backend.
//
// It is used by the conformance harness and by tests that need a backend
// without touching disk. Commit holds one write lock for the whole batch,
// so a commit is atomic with respect to every reader.
package memstore
