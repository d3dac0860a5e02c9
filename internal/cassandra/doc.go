// Package cassandra implements Kronos's storage core: the Namespace,
// Stream, Bucket, shard iterator, and sort-merger of spec §4, against a
// wide-column backend reached through gocql.
//
// # Layout
//
// A Namespace owns one keyspace, one backend session, and a "stream" +
// "stream_list" schema (§4.2). A Stream decomposes into buckets — fixed
// [start, start+width) time windows — each fanned out across a fixed
// number of shards (§3, §4.4). Insert routes one event to exactly one
// (bucket, shard) row; Retrieve and Delete fan out across every bucket
// that overlaps the query window and every shard within it.
//
// # Why an interface sits in front of gocql
//
// Namespace and Stream are written against the narrow session/query/rowIter
// interfaces in session.go, not *gocql.Session directly — the same
// interface-plus-swappable-implementation shape the teacher used for
// internal/storage.Store. Production code is backed by gocqlSession
// (session_gocql.go); tests are backed by fakeSession, an in-memory double
// good enough to exercise bucket/shard routing, paging, and the merger
// without a live cluster.
package cassandra
