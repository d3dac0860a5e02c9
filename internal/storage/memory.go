package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dreamware/kronos/internal/ktime"
)

// MemoryStore is the thin in-memory Storage implementation spec §1
// reserves for test support: it holds every namespace's streams as sorted,
// in-process slices, with no bucket/shard fan-out and no backend
// round-trips. It satisfies the same Storage interface as
// internal/cassandra.Service, so tests can swap one for the other.
//
// Thread-safety follows the teacher's MemoryStore: a single sync.RWMutex
// guards all maps, values are copied on the way in and out, and no lock is
// held across anything that could block.
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]*memNamespace
}

type memNamespace struct {
	streams map[string]*memStream
}

type memStream struct {
	width  ktime.KronosTime
	shards int
	events []Event // kept sorted ascending by id; unique by id
}

// NewMemoryStore returns an empty, ready-to-use MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{namespaces: make(map[string]*memNamespace)}
}

func (m *MemoryStore) IsAlive() bool { return true }

func (m *MemoryStore) namespace(name string) *memNamespace {
	ns, ok := m.namespaces[name]
	if !ok {
		ns = &memNamespace{streams: make(map[string]*memStream)}
		m.namespaces[name] = ns
	}
	return ns
}

func (s *memStream) find(id ktime.EventId) int {
	return sort.Search(len(s.events), func(i int) bool {
		return ktime.Compare(s.events[i].Id, id) >= 0
	})
}

// upsert inserts ev, overwriting any existing event with the same id
// (idempotent-by-id insert, per spec §3 invariants).
func (s *memStream) upsert(ev Event) {
	i := s.find(ev.Id)
	if i < len(s.events) && s.events[i].Id == ev.Id {
		s.events[i] = ev
		return
	}
	s.events = append(s.events, Event{})
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = ev
}

func (m *MemoryStore) Insert(_ context.Context, namespace, stream string, events []Event, cfg StreamConfig) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns := m.namespace(namespace)
	st, ok := ns.streams[stream]
	if !ok {
		width, err := ktime.SecondsToKronosTime(float64(cfg.TimewidthSeconds))
		if err != nil {
			return InsertResult{}, &OverflowError{Err: err}
		}
		st = &memStream{width: width, shards: cfg.ShardsPerBucket}
		ns.streams[stream] = st
	} else {
		width, err := ktime.SecondsToKronosTime(float64(cfg.TimewidthSeconds))
		if err != nil {
			return InsertResult{}, &OverflowError{Err: err}
		}
		if st.width != width || st.shards != cfg.ShardsPerBucket {
			return InsertResult{}, &SchemaMismatch{Detail: fmt.Sprintf(
				"stream %q already exists with timewidth_seconds=%v shards_per_bucket=%d",
				stream, st.width.Seconds(), st.shards)}
		}
	}

	var res InsertResult
	for i, ev := range events {
		id, err := ResolveEventID(ev)
		if err != nil {
			res.Failures = append(res.Failures, InsertOutcome{Index: i, Err: &InvalidEvent{Index: i, Err: err}})
			continue
		}
		st.upsert(Event{Id: id, Payload: ev.Payload})
		res.Inserted++
	}
	return res, nil
}

func (m *MemoryStore) Retrieve(_ context.Context, namespace, stream string, startID ktime.EventId, endTime ktime.KronosTime, order ResultOrder, limit int, _ StreamConfig) (EventIterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	endID, err := ktime.NewEventID(endTime, ktime.Highest)
	if err != nil {
		return nil, &OverflowError{Err: err}
	}

	ns, ok := m.namespaces[namespace]
	if !ok {
		return &memIterator{order: order, limit: limit}, nil
	}
	st, ok := ns.streams[stream]
	if !ok {
		return &memIterator{order: order, limit: limit}, nil
	}

	lo := st.find(startID)
	hi := st.find(endID)
	if hi < len(st.events) && st.events[hi].Id == endID {
		hi++ // end bound is inclusive
	}

	window := make([]Event, hi-lo)
	copy(window, st.events[lo:hi])
	if len(window) > 0 && ktime.Compare(window[0].Id, startID) == 0 {
		window = window[1:] // start bound is exclusive
	}
	if order == Descending {
		for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
			window[i], window[j] = window[j], window[i]
		}
	}
	return &memIterator{events: window, order: order, limit: limit}, nil
}

func (m *MemoryStore) Delete(_ context.Context, namespace, stream string, startID ktime.EventId, endTime ktime.KronosTime, _ StreamConfig) (DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	endID, err := ktime.NewEventID(endTime, ktime.Highest)
	if err != nil {
		return DeleteResult{}, &OverflowError{Err: err}
	}

	ns, ok := m.namespaces[namespace]
	if !ok {
		return DeleteResult{}, nil
	}
	st, ok := ns.streams[stream]
	if !ok {
		return DeleteResult{}, nil
	}

	lo := st.find(startID)
	hi := st.find(endID)
	if hi < len(st.events) && st.events[hi].Id == endID {
		hi++ // end bound is inclusive for delete, unlike retrieve's start bound
	}
	removed := hi - lo
	if removed <= 0 {
		return DeleteResult{}, nil
	}
	st.events = append(st.events[:lo], st.events[hi:]...)
	return DeleteResult{TombstonesWritten: 1}, nil
}

func (m *MemoryStore) Streams(_ context.Context, namespace string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(ns.streams))
	for name := range ns.streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.namespaces = make(map[string]*memNamespace)
	return nil
}

// memIterator is the pull-based EventIterator MemoryStore hands back. It
// holds its whole window in memory up front — acceptable for a test-only
// backend, unlike the paged, backend-fronting iterator in
// internal/cassandra.
type memIterator struct {
	events []Event
	order  ResultOrder
	limit  int
	pos    int
	n      int
}

func (it *memIterator) Next(_ context.Context) (Event, bool, error) {
	if it.limit > 0 && it.n >= it.limit {
		return Event{}, false, nil
	}
	if it.pos >= len(it.events) {
		return Event{}, false, nil
	}
	ev := it.events[it.pos]
	it.pos++
	it.n++
	return ev, true, nil
}

func (it *memIterator) Close() error { return nil }
