package storage

import (
	"context"

	"github.com/dreamware/kronos/internal/ktime"
)

// ResultOrder selects whether Retrieve emits events in ascending or
// descending id (equivalently, time) order.
type ResultOrder int

const (
	Ascending ResultOrder = iota
	Descending
)

// Event is the unit the core stores and returns: an opaque payload
// identified by a time-ordered EventId. Payloads are never interpreted by
// the core beyond locating the id field at insert time.
type Event struct {
	Id      ktime.EventId
	Payload []byte
}

// StreamConfig is a stream's effective, per-call configuration. Both
// fields are recognized keys of the external config mapping in spec §6;
// any other key is rejected with ConfigError by the caller that parses it
// (internal/config).
type StreamConfig struct {
	TimewidthSeconds int
	ShardsPerBucket  int
}

// InsertOutcome reports a single event from an Insert call that was not
// stored: Index is its position in the call's events, Err says why.
// Successfully stored events get no InsertOutcome.
type InsertOutcome struct {
	Index int
	Err   error
}

// InsertResult is the per-batch outcome of Insert: some events may have
// failed (InvalidEvent) while the remainder were stored.
type InsertResult struct {
	Inserted int
	Failures []InsertOutcome
}

// DeleteResult reports the number of (bucket, shard) tombstone writes
// issued by Delete — not the number of events removed, which the backend
// does not report.
type DeleteResult struct {
	TombstonesWritten int
}

// EventIterator is a pull-based, one-shot forward sequence of Events in
// strictly increasing or strictly decreasing id order. Callers drop it to
// release any backend paging state; implementations must do so promptly
// from Close.
type EventIterator interface {
	// Next advances the iterator. It returns (event, true, nil) when an
	// event is available, (zero, false, nil) when the sequence is
	// exhausted, and (zero, false, err) on a backend failure — which
	// fails the whole sequence; the caller retries from the last emitted
	// id.
	Next(ctx context.Context) (Event, bool, error)
	Close() error
}

// Storage is the one interface external transports consume. It is
// implemented by internal/cassandra.Service for production use and by
// MemoryStore for tests.
type Storage interface {
	// IsAlive reports whether the backend connection is usable.
	IsAlive() bool

	// Insert stores events for stream within namespace, creating the
	// stream on first use from cfg. Returns a per-event outcome list;
	// a non-nil error means the whole call could not proceed (e.g. the
	// namespace itself failed to initialize).
	Insert(ctx context.Context, namespace, stream string, events []Event, cfg StreamConfig) (InsertResult, error)

	// Retrieve returns an iterator over events with id in
	// (startID, uuid_from_kronos_time(endTime, HIGHEST)], per the
	// boundary rule in spec §4.4.
	Retrieve(ctx context.Context, namespace, stream string, startID ktime.EventId, endTime ktime.KronosTime, order ResultOrder, limit int, cfg StreamConfig) (EventIterator, error)

	// Delete removes events with id in [startID, uuid_from_kronos_time(endTime, HIGHEST)].
	Delete(ctx context.Context, namespace, stream string, startID ktime.EventId, endTime ktime.KronosTime, cfg StreamConfig) (DeleteResult, error)

	// Streams lists the names of the streams registered in namespace.
	// MemoryStore registers a stream on its first Insert;
	// internal/cassandra.Service registers it on the first Insert, Retrieve
	// or Delete that names it.
	Streams(ctx context.Context, namespace string) ([]string, error)

	// Clear destroys all namespaces known to this Storage. Test support only.
	Clear(ctx context.Context) error
}
