package cassandra

import (
	"fmt"
	"sync"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog"

	"github.com/dreamware/kronos/internal/ktime"
	"github.com/dreamware/kronos/internal/storage"
)

// streamKey identifies a memoized Stream by name alone — Streams are
// addressed by name alone in the schema (§4.2). A stream's shard count and
// width are fixed by whichever GetStream call creates it; a later call
// naming a different shape is a SchemaMismatch, not a silent reshape,
// per invariant 8's "once set, MUST NOT change mid-life."
type streamKey string

// Namespace owns one keyspace: its schema, its session, and the Streams
// created within it. It is the Go counterpart of the original client's
// per-namespace Cassandra connection plus lazily-created Stream objects.
type Namespace struct {
	keyspace string
	sess     session
	readSize int
	log      zerolog.Logger

	mu      sync.Mutex
	streams map[streamKey]*Stream
}

func newNamespace(
	cluster *gocql.ClusterConfig,
	keyspace string,
	replicationFactor int,
	readSize int,
	dialFn dialSessionFunc,
	log zerolog.Logger,
) (*Namespace, error) {
	bootstrap, err := dialFn(cluster, "")
	if err != nil {
		return nil, &storage.StorageError{Op: "ensure keyspace", Err: err}
	}
	defer bootstrap.Close()

	if err := bootstrap.Query(createKeyspaceCQL(keyspace, replicationFactor)).Exec(); err != nil {
		return nil, &storage.StorageError{Op: "create keyspace", Err: err}
	}

	sess, err := dialFn(cluster, keyspace)
	if err != nil {
		return nil, &storage.StorageError{Op: "open namespace session", Err: err}
	}

	ns := &Namespace{
		keyspace: keyspace,
		sess:     sess,
		readSize: readSize,
		log:      log.With().Str("keyspace", keyspace).Logger(),
		streams:  make(map[streamKey]*Stream),
	}
	if err := ns.ensureSchema(); err != nil {
		sess.Close()
		return nil, err
	}
	return ns, nil
}

func (ns *Namespace) ensureSchema() error {
	if err := ns.sess.Query(createStreamTableCQL()).Exec(); err != nil {
		return &storage.StorageError{Op: "create stream table", Err: err}
	}
	if err := ns.sess.Query(createStreamListTableCQL()).Exec(); err != nil {
		return &storage.StorageError{Op: "create stream_list table", Err: err}
	}
	return nil
}

// GetStream returns the Stream for name within this namespace, creating it
// on first use.
//
// Behavior:
//   - First call for a name: registers the name in stream_list (so
//     ListStreams sees it even from a process that never memoized it),
//     constructs a Stream fixed at the given width/shards, and memoizes it.
//   - Later call for an already-memoized name with the SAME width and
//     shards: returns the memoized Stream; width/shards are not re-applied
//     or re-validated against the backend schema.
//   - Later call for an already-memoized name with a DIFFERENT width or
//     shards: returns a *storage.SchemaMismatch and does not touch the
//     existing Stream. A stream's shape is fixed for its life (invariant 8's
//     parenthetical: "a stream's shard count, once set, MUST NOT change
//     mid-life") — silently reshaping it would make previously-written
//     partitions unreadable under the new shard function.
//
// Thread-safety: ns.mu serializes the whole read-or-create sequence, so two
// concurrent first-use calls for the same name cannot both win; the loser
// observes the winner's memoized Stream instead of issuing a redundant
// stream_list write.
func (ns *Namespace) GetStream(name string, width ktime.KronosTime, shards int) (*Stream, error) {
	key := streamKey(name)

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if st, ok := ns.streams[key]; ok {
		if st.width != width || st.shards != shards {
			return nil, &storage.SchemaMismatch{Detail: fmt.Sprintf(
				"stream %q already exists with timewidth_seconds=%v shards_per_bucket=%d",
				name, st.width.Seconds(), st.shards)}
		}
		return st, nil
	}
	if err := ns.sess.Query(addStreamNameCQL, []string{name}, streamListKey).Exec(); err != nil {
		return nil, &storage.StorageError{Op: "register stream name", Err: err}
	}
	st := newStream(name, width, shards, ns.sess, ns.readSize, ns.log)
	ns.streams[key] = st
	return st, nil
}

// ListStreams returns every stream name ever registered in this keyspace,
// including ones not memoized in this process.
func (ns *Namespace) ListStreams() ([]string, error) {
	it := ns.sess.Query(selectStreamListCQL, streamListKey).Iter()
	var names []string
	var raw []string
	for it.Next(&raw) {
		names = append(names, raw...)
		raw = nil
	}
	if err := it.Close(); err != nil {
		return nil, &storage.StorageError{Op: "list streams", Err: err}
	}
	return names, nil
}

// IsAlive reports whether the namespace's session is still usable.
func (ns *Namespace) IsAlive() bool {
	return !ns.sess.Closed()
}

// Close releases the namespace's session.
func (ns *Namespace) Close() {
	ns.sess.Close()
}
