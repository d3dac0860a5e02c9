package cassandra

import "context"

// rowIter is the narrow slice of gocql.Iter the core depends on: scan one
// row at a time, learn whether the round trip failed, and release server
// and client-side paging state on Close. Shard iterators (iterator.go)
// never hold more than one open rowIter at a time.
type rowIter interface {
	Next(dest ...interface{}) bool
	Close() error
}

// query is the narrow slice of gocql.Query the core depends on: bind page
// size, optionally resume from a page state, and execute either as a
// single statement or as a paged read.
type query interface {
	WithContext(ctx context.Context) query
	PageSize(n int) query
	PageState(state []byte) query
	Iter() rowIter
	Exec() error
}

// batch groups a set of same-partition statements the way spec §4.3
// requires ("group upserts by (name, bucket_start, shard); flush each
// group as a single backend batch").
type batch interface {
	Query(stmt string, args ...interface{})
}

// session is the narrow slice of *gocql.Session the core depends on. A
// production Namespace is backed by gocqlSession (session_gocql.go); tests
// are backed by fakeSession (fakesession_test.go) — the same
// interface-plus-swappable-implementation shape as internal/storage.Store
// in the teacher.
type session interface {
	Query(stmt string, args ...interface{}) query
	NewBatch() batch
	ExecuteBatch(b batch) error
	Close()
	Closed() bool
}
