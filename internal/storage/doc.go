// Package storage defines Kronos's external Storage facade — the single
// interface every transport (an HTTP handler, a CLI, a test harness) is
// built against — plus the error taxonomy those transports see and a
// MemoryStore implementation reserved for tests.
//
// # Architecture
//
//	┌───────────────────────────────────┐
//	│   Transport (HTTP / CLI / tests)   │
//	└───────────────────┬───────────────┘
//	                     ▼
//	┌───────────────────────────────────┐
//	│         storage.Storage            │
//	└───────────────────┬───────────────┘
//	          ┌──────────┴──────────┐
//	          ▼                     ▼
//	┌──────────────────┐   ┌──────────────────┐
//	│ cassandra.Service │   │    MemoryStore    │
//	│ (wide-column)     │   │ (tests only)      │
//	└──────────────────┘   └──────────────────┘
//
// # Error taxonomy
//
// Every Storage method returns one of a fixed set of typed errors:
// ConfigError (fatal, construction-time), InvalidEvent (per-event, insert
// proceeds for the rest of the batch), InvalidUUID, OverflowError,
// StorageError (backend I/O; the core never retries it), and
// SchemaMismatch (fatal to a namespace). No error is ever swallowed — this
// package does no logging of its own, that is a collaborator's job.
//
// # Ordering and idempotency
//
// Retrieve emits events in strictly increasing (ascending) or strictly
// decreasing (descending) id order and never re-emits the event whose id
// equals the caller's start_id. Insert is idempotent by id: inserting the
// same (stream, id, payload) twice yields one stored copy.
package storage
