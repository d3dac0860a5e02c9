package cassandra

import (
	"context"

	"github.com/gocql/gocql"
)

// gocqlSession adapts *gocql.Session to the session interface. This is the
// only file in the package that calls *gocql.Session directly — everything
// else is written against the narrow interfaces in session.go so it can be
// exercised without a live cluster.
type gocqlSession struct {
	sess *gocql.Session
}

func newGocqlSession(cluster *gocql.ClusterConfig) (session, error) {
	s, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}
	return &gocqlSession{sess: s}, nil
}

func (g *gocqlSession) Query(stmt string, args ...interface{}) query {
	return &gocqlQuery{q: g.sess.Query(stmt, args...)}
}

func (g *gocqlSession) NewBatch() batch {
	return &gocqlBatch{b: g.sess.NewBatch(gocql.UnloggedBatch)}
}

func (g *gocqlSession) ExecuteBatch(b batch) error {
	gb, ok := b.(*gocqlBatch)
	if !ok {
		return errNotGocqlBatch
	}
	return g.sess.ExecuteBatch(gb.b)
}

func (g *gocqlSession) Close()       { g.sess.Close() }
func (g *gocqlSession) Closed() bool { return g.sess.Closed() }

type gocqlQuery struct {
	q *gocql.Query
}

func (w *gocqlQuery) WithContext(ctx context.Context) query {
	w.q = w.q.WithContext(ctx)
	return w
}

func (w *gocqlQuery) PageSize(n int) query {
	w.q = w.q.PageSize(n)
	return w
}

func (w *gocqlQuery) PageState(state []byte) query {
	w.q = w.q.PageState(state)
	return w
}

func (w *gocqlQuery) Iter() rowIter {
	return &gocqlRowIter{it: w.q.Iter()}
}

func (w *gocqlQuery) Exec() error { return w.q.Exec() }

type gocqlRowIter struct {
	it *gocql.Iter
}

func (w *gocqlRowIter) Next(dest ...interface{}) bool { return w.it.Scan(dest...) }
func (w *gocqlRowIter) Close() error                  { return w.it.Close() }

type gocqlBatch struct {
	b *gocql.Batch
}

func (w *gocqlBatch) Query(stmt string, args ...interface{}) {
	w.b.Query(stmt, args...)
}

var errNotGocqlBatch = &gocqlAdapterError{"batch was not created by gocqlSession.NewBatch"}

type gocqlAdapterError struct{ msg string }

func (e *gocqlAdapterError) Error() string { return e.msg }
