package cassandra

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dreamware/kronos/internal/ktime"
	"github.com/dreamware/kronos/internal/storage"
)

// Stream is one named event stream within a Namespace: a fixed bucket
// width and shard count (§4.4), routing every Insert/Retrieve/Delete to
// the (bucket, shard) partitions that can hold or contain the ids in
// question.
type Stream struct {
	name     string
	width    ktime.KronosTime
	shards   int
	sess     session
	readSize int
	log      zerolog.Logger
}

func newStream(name string, width ktime.KronosTime, shards int, sess session, readSize int, log zerolog.Logger) *Stream {
	return &Stream{
		name:     name,
		width:    width,
		shards:   shards,
		sess:     sess,
		readSize: readSize,
		log:      log.With().Str("stream", name).Logger(),
	}
}

type partition struct {
	bucket ktime.KronosTime
	shard  int
}

type pendingInsert struct {
	id      ktime.EventId
	payload []byte
	index   int
}

// Insert resolves an id for every event, groups the resolved events by the
// (bucket, shard) partition their id routes to, and flushes each group as
// one backend batch.
//
// Behavior:
//   - An event whose id can't be resolved (malformed "id" field, overflowing
//     timestamp) never reaches a batch; it is reported in
//     InsertResult.Failures at its original index and every other event in
//     the call still proceeds.
//   - A batch that fails at the backend fails every event it carried, each
//     wrapped in a StorageError and reported individually — one partition's
//     failure never aborts another partition's batch.
//   - Re-inserting an event with an id already stored overwrites that row;
//     it does not create a duplicate (idempotent by id, per invariant 6).
//
// Partitioning: bucket is ktime.RoundDown(eventTime, Stream.width); shard is
// shardOf(id, Stream.shards) — a deterministic function of the id alone, so
// two inserts of the same id always target the same partition regardless of
// call order.
//
// Returns InsertResult.Inserted as the count of events that reached a
// successful batch; it does not distinguish a fresh insert from an
// overwrite, since the backend itself does not report that distinction.
func (st *Stream) Insert(ctx context.Context, events []storage.Event) (storage.InsertResult, error) {
	groups := make(map[partition][]pendingInsert)
	var result storage.InsertResult

	for i, ev := range events {
		id, err := storage.ResolveEventID(ev)
		if err != nil {
			result.Failures = append(result.Failures, storage.InsertOutcome{Index: i, Err: &storage.InvalidEvent{Index: i, Err: err}})
			continue
		}
		t, err := ktime.TimeOf(id)
		if err != nil {
			result.Failures = append(result.Failures, storage.InsertOutcome{Index: i, Err: &storage.InvalidEvent{Index: i, Err: err}})
			continue
		}
		p := partition{bucket: ktime.RoundDown(t, st.width), shard: shardOf(id, st.shards)}
		groups[p] = append(groups[p], pendingInsert{id: id, payload: ev.Payload, index: i})
	}

	for p, members := range groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		b := st.sess.NewBatch()
		for _, m := range members {
			b.Query(upsertEventCQL, st.name, int64(p.bucket), p.shard, toGocqlUUID(m.id), string(m.payload))
		}
		if err := st.sess.ExecuteBatch(b); err != nil {
			wrapped := &storage.StorageError{Op: "insert batch", Err: err}
			for _, m := range members {
				result.Failures = append(result.Failures, storage.InsertOutcome{Index: m.index, Err: wrapped})
			}
			continue
		}
		result.Inserted += len(members)
	}
	return result, nil
}

// Retrieve returns events in [startID, endTime] merged into a single id
// ordering, ascending or descending.
//
// Fan-out: every bucket overlapping [startID's time, endTime] is computed
// via bucketsOverlapping, and every shard in st.shards is queried within
// each such bucket — a query never has enough information to know which
// shards are empty, so all of them are issued. Each (bucket, shard)
// partition opens one paged shardIterator; every iterator feeds a single
// merger that interleaves them into global id order using a heap keyed by
// each iterator's next unconsumed id.
//
// Bounds: endTime is converted to endID = ktime.NewEventID(endTime, Highest)
// so the CQL-level range "id >= startID AND id <= endID" is inclusive on
// both ends — the simplest range a clustering-key comparison can express.
// The caller-facing exclusivity of startID (never emit the event whose id
// equals it) is enforced exactly once, inside the merger, rather than
// duplicated into every per-shard query predicate.
//
// Thread-safety: safe for concurrent calls; each call opens its own
// iterators and merger and shares nothing mutable with another in-flight
// Retrieve.
//
// Returns a storage.EventIterator; the caller must Close it, even after
// draining it to ok=false, to release every underlying paged rowIter.
func (st *Stream) Retrieve(ctx context.Context, startID ktime.EventId, endTime ktime.KronosTime, order storage.ResultOrder, limit int) (storage.EventIterator, error) {
	startTime, err := ktime.TimeOf(startID)
	if err != nil {
		return nil, &storage.InvalidUUID{Context: "retrieve start id", Err: err}
	}
	endID, err := ktime.NewEventID(endTime, ktime.Highest)
	if err != nil {
		return nil, &storage.OverflowError{Err: err}
	}

	buckets := bucketsOverlapping(startTime, endTime, st.width)
	var iters []*shardIterator
	for _, bucket := range buckets {
		for shard := 0; shard < st.shards; shard++ {
			stmt := selectRangeAscCQL
			if order == storage.Descending {
				stmt = selectRangeDescCQL
			}
			q := st.sess.Query(stmt, st.name, int64(bucket), shard, toGocqlUUID(startID), toGocqlUUID(endID)).
				WithContext(ctx).
				PageSize(st.readSize)
			iters = append(iters, newShardIterator(q))
		}
	}
	return newMerger(iters, order, limit, startID), nil
}

// Delete fans out one unpaged delete per (bucket, shard) overlapping
// [start_id's time, endTime]. Unlike Retrieve, both bounds are inclusive
// at the CQL level and no exclusion step follows (§4.3 edge case: a
// delete whose start equals a stored id removes that id too).
func (st *Stream) Delete(ctx context.Context, startID ktime.EventId, endTime ktime.KronosTime) (storage.DeleteResult, error) {
	startTime, err := ktime.TimeOf(startID)
	if err != nil {
		return storage.DeleteResult{}, &storage.InvalidUUID{Context: "delete start id", Err: err}
	}
	endID, err := ktime.NewEventID(endTime, ktime.Highest)
	if err != nil {
		return storage.DeleteResult{}, &storage.OverflowError{Err: err}
	}

	buckets := bucketsOverlapping(startTime, endTime, st.width)
	var written int
	for _, bucket := range buckets {
		for shard := 0; shard < st.shards; shard++ {
			if err := ctx.Err(); err != nil {
				return storage.DeleteResult{TombstonesWritten: written}, err
			}
			q := st.sess.Query(deleteRangeCQL, st.name, int64(bucket), shard, toGocqlUUID(startID), toGocqlUUID(endID)).WithContext(ctx)
			if err := q.Exec(); err != nil {
				return storage.DeleteResult{TombstonesWritten: written}, &storage.StorageError{Op: "delete range", Err: err}
			}
			written++
		}
	}
	return storage.DeleteResult{TombstonesWritten: written}, nil
}
