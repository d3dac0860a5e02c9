package cassandra

import (
	"github.com/gocql/gocql"

	"github.com/dreamware/kronos/internal/ktime"
	"github.com/dreamware/kronos/internal/storage"
)

func toGocqlUUID(id ktime.EventId) gocql.UUID {
	var u gocql.UUID
	copy(u[:], id[:])
	return u
}

func fromGocqlUUID(u gocql.UUID) ktime.EventId {
	var id ktime.EventId
	copy(id[:], u[:])
	return id
}

// shardIterator reads one (bucket, shard) partition's rows, already sorted
// by the backend in the direction the query asked for. It prefetches one
// row at a time so the merger can Peek the next id across every partition
// without consuming it.
type shardIterator struct {
	rows    rowIter
	current storage.Event
	hasMore bool
	err     error
}

func newShardIterator(q query) *shardIterator {
	si := &shardIterator{rows: q.Iter()}
	si.advance()
	return si
}

func (si *shardIterator) advance() {
	var id gocql.UUID
	var blob string
	if !si.rows.Next(&id, &blob) {
		si.hasMore = false
		si.err = si.rows.Close()
		return
	}
	si.current = storage.Event{Id: fromGocqlUUID(id), Payload: []byte(blob)}
	si.hasMore = true
}

// Peek returns the next unconsumed event without advancing, and whether
// one is available.
func (si *shardIterator) Peek() (storage.Event, bool) {
	return si.current, si.hasMore
}

// Pop discards the peeked event and prefetches the following one.
func (si *shardIterator) Pop() {
	si.advance()
}

// Err reports the backend error, if any, that ended this partition's rows.
// It is only meaningful once Peek reports hasMore=false — a partition that
// still has rows buffered has not failed yet, even if the underlying
// rowIter will eventually report one.
func (si *shardIterator) Err() error {
	return si.err
}

func (si *shardIterator) Close() error {
	if si.hasMore {
		return si.rows.Close()
	}
	return si.err
}
