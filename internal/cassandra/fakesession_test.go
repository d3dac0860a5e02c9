package cassandra

import (
	"context"
	"sort"
	"strings"

	"github.com/gocql/gocql"

	"github.com/dreamware/kronos/internal/ktime"
)

// fakeSession is an in-memory double for the session interface, good
// enough to exercise bucket/shard routing, paging, and the merger without
// a live cluster — the same role MemoryStore plays for the storage
// package, applied one layer lower.
type fakeSession struct {
	rows       map[partKey][]storedRow
	sets       map[string]map[string]bool
	closed     bool
	failSelect map[partKey]error
}

type partKey struct {
	stream string
	bucket int64
	shard  int
}

type storedRow struct {
	id   ktime.EventId
	blob string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		rows:       make(map[partKey][]storedRow),
		sets:       make(map[string]map[string]bool),
		failSelect: make(map[partKey]error),
	}
}

// injectSelectFailure makes every future select over pk fail once its
// currently-buffered rows (if any) are exhausted, whether that partition
// held zero rows or several — simulating an immediate or mid-stream
// backend read failure for error-propagation tests.
func (f *fakeSession) injectSelectFailure(pk partKey, err error) {
	f.failSelect[pk] = err
}

func (f *fakeSession) Query(stmt string, args ...interface{}) query {
	return &fakeQuery{sess: f, stmt: stmt, args: args}
}

func (f *fakeSession) NewBatch() batch { return &fakeBatch{} }

func (f *fakeSession) ExecuteBatch(b batch) error {
	fb, ok := b.(*fakeBatch)
	if !ok {
		return errNotGocqlBatch
	}
	for _, s := range fb.stmts {
		if _, _, err := f.run(s.stmt, s.args); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSession) Close()       { f.closed = true }
func (f *fakeSession) Closed() bool { return f.closed }

// run dispatches a CQL statement against the in-memory state and returns
// any result rows for a read, or nil for a write.
func (f *fakeSession) run(stmt string, args []interface{}) (rows [][]interface{}, isWrite bool, err error) {
	trimmed := strings.TrimSpace(stmt)
	switch {
	case strings.HasPrefix(trimmed, "CREATE KEYSPACE"),
		strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+streamTable),
		strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+streamListTable):
		return nil, true, nil

	case strings.HasPrefix(trimmed, "DROP KEYSPACE"):
		f.rows = make(map[partKey][]storedRow)
		f.sets = make(map[string]map[string]bool)
		return nil, true, nil

	case stmt == upsertEventCQL:
		pk := partKey{stream: args[0].(string), bucket: args[1].(int64), shard: args[2].(int)}
		id := fromGocqlUUID(args[3].(gocql.UUID))
		blob := args[4].(string)
		f.upsert(pk, storedRow{id: id, blob: blob})
		return nil, true, nil

	case stmt == deleteRangeCQL:
		pk := partKey{stream: args[0].(string), bucket: args[1].(int64), shard: args[2].(int)}
		lo := fromGocqlUUID(args[3].(gocql.UUID))
		hi := fromGocqlUUID(args[4].(gocql.UUID))
		f.deleteRange(pk, lo, hi)
		return nil, true, nil

	case stmt == selectRangeAscCQL, stmt == selectRangeDescCQL:
		pk := partKey{stream: args[0].(string), bucket: args[1].(int64), shard: args[2].(int)}
		lo := fromGocqlUUID(args[3].(gocql.UUID))
		hi := fromGocqlUUID(args[4].(gocql.UUID))
		matched := f.selectRange(pk, lo, hi)
		if stmt == selectRangeDescCQL {
			for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
		for _, r := range matched {
			rows = append(rows, []interface{}{toGocqlUUID(r.id), r.blob})
		}
		return rows, false, nil

	case stmt == addStreamNameCQL:
		names := args[0].([]string)
		key := args[1].(string)
		if f.sets[key] == nil {
			f.sets[key] = make(map[string]bool)
		}
		for _, n := range names {
			f.sets[key][n] = true
		}
		return nil, true, nil

	case stmt == selectStreamListCQL:
		key := args[0].(string)
		var names []string
		for n := range f.sets[key] {
			names = append(names, n)
		}
		sort.Strings(names)
		if names == nil {
			return nil, false, nil
		}
		return [][]interface{}{{names}}, false, nil
	}
	return nil, false, &gocqlAdapterError{"fakeSession: unrecognized statement: " + stmt}
}

func (f *fakeSession) upsert(pk partKey, row storedRow) {
	existing := f.rows[pk]
	i := sort.Search(len(existing), func(i int) bool {
		return ktime.Compare(existing[i].id, row.id) >= 0
	})
	if i < len(existing) && existing[i].id == row.id {
		existing[i] = row
		return
	}
	existing = append(existing, storedRow{})
	copy(existing[i+1:], existing[i:])
	existing[i] = row
	f.rows[pk] = existing
}

func (f *fakeSession) deleteRange(pk partKey, lo, hi ktime.EventId) {
	existing := f.rows[pk]
	var kept []storedRow
	for _, r := range existing {
		if ktime.Compare(r.id, lo) >= 0 && ktime.Compare(r.id, hi) <= 0 {
			continue
		}
		kept = append(kept, r)
	}
	f.rows[pk] = kept
}

func (f *fakeSession) selectRange(pk partKey, lo, hi ktime.EventId) []storedRow {
	var out []storedRow
	for _, r := range f.rows[pk] {
		if ktime.Compare(r.id, lo) >= 0 && ktime.Compare(r.id, hi) <= 0 {
			out = append(out, r)
		}
	}
	return out
}

type fakeQuery struct {
	sess *fakeSession
	stmt string
	args []interface{}
}

func (q *fakeQuery) WithContext(ctx context.Context) query { return q }
func (q *fakeQuery) PageSize(n int) query                  { return q }
func (q *fakeQuery) PageState(state []byte) query          { return q }

func (q *fakeQuery) Iter() rowIter {
	rows, _, err := q.sess.run(q.stmt, q.args)
	it := &fakeRowIter{rows: rows, err: err}
	if q.stmt == selectRangeAscCQL || q.stmt == selectRangeDescCQL {
		pk := partKey{stream: q.args[0].(string), bucket: q.args[1].(int64), shard: q.args[2].(int)}
		it.closeErr = q.sess.failSelect[pk]
	}
	return it
}

func (q *fakeQuery) Exec() error {
	_, _, err := q.sess.run(q.stmt, q.args)
	return err
}

type fakeRowIter struct {
	rows     []([]interface{})
	pos      int
	err      error // returned immediately, before any row is ever delivered
	closeErr error // surfaced by Close only once rows are exhausted, so buffered rows still deliver first
}

func (it *fakeRowIter) Next(dest ...interface{}) bool {
	if it.err != nil || it.pos >= len(it.rows) {
		return false
	}
	row := it.rows[it.pos]
	it.pos++
	for i, d := range dest {
		if i >= len(row) {
			break
		}
		switch dp := d.(type) {
		case *gocql.UUID:
			*dp = row[i].(gocql.UUID)
		case *string:
			*dp = row[i].(string)
		case *[]string:
			*dp = row[i].([]string)
		}
	}
	return true
}

func (it *fakeRowIter) Close() error {
	if it.err != nil {
		return it.err
	}
	return it.closeErr
}

type batchedStmt struct {
	stmt string
	args []interface{}
}

type fakeBatch struct {
	stmts []batchedStmt
}

func (b *fakeBatch) Query(stmt string, args ...interface{}) {
	b.stmts = append(b.stmts, batchedStmt{stmt: stmt, args: args})
}
