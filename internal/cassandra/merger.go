package cassandra

import (
	"container/heap"
	"context"

	"github.com/dreamware/kronos/internal/ktime"
	"github.com/dreamware/kronos/internal/storage"
)

// merger performs an N-way merge of shardIterators into a single
// storage.EventIterator in global id order. Every bucket/shard partition
// is independently sorted by id; merging by id across partitions is safe
// because shard assignment never depends on anything but the id itself
// (shard.go), so id order is identical to global order. No suitable
// k-way-merge library appears anywhere in the example pack, so this uses
// container/heap directly, the same way the stdlib's own merge utilities
// would.
type merger struct {
	heap      *shardHeap
	all       []*shardIterator
	limit     int
	emitted   int
	excludeID ktime.EventId
	excluded  bool
	haveLast  bool
	lastID    ktime.EventId
	err       error
}

func newMerger(iters []*shardIterator, order storage.ResultOrder, limit int, excludeID ktime.EventId) *merger {
	h := &shardHeap{desc: order == storage.Descending}
	m := &merger{heap: h, all: iters, limit: limit, excludeID: excludeID}
	for _, it := range iters {
		if _, ok := it.Peek(); ok {
			h.items = append(h.items, it)
		} else if err := it.Err(); err != nil && m.err == nil {
			// A partition that failed before its first row arrived never
			// enters the heap, so its error must be captured here or it
			// would vanish along with the partition.
			m.err = err
		}
	}
	heap.Init(h)
	return m
}

// Next returns the next event in merged order, pulling from whichever
// shardIterator currently holds the smallest (or, descending, largest) id
// and re-heapifying around it.
//
// Two kinds of drop happen before an event is returned. Exactly one event
// equal to excludeID is dropped, wherever in the merge order it appears —
// this is the "exclusive of start_id" boundary rule of §4.4, applied once,
// here, rather than duplicated into every per-shard query. Beyond that, any
// event whose id equals the previously emitted id is also dropped: ids are
// unique, so a repeat can only be a retried write the backend returned
// twice.
//
// Error propagation: when popping an iterator empties it, its Err() is
// checked before the iterator is dropped from the heap. A non-nil error is
// latched and surfaces on the call to Next immediately following the last
// event that partition actually delivered — so a row already fetched
// before the failure is still returned, but the sequence then ends with
// (zero, false, err) rather than silently as (zero, false, nil), matching
// the EventIterator contract (storage.EventIterator.Next: "ok=false with a
// non-nil error on backend failure … fails the whole sequence"). Once an
// error has been returned, every subsequent call returns the same error.
func (m *merger) Next(ctx context.Context) (storage.Event, bool, error) {
	for {
		if m.err != nil {
			return storage.Event{}, false, m.err
		}
		if err := ctx.Err(); err != nil {
			return storage.Event{}, false, err
		}
		if m.limit > 0 && m.emitted >= m.limit {
			return storage.Event{}, false, nil
		}
		if m.heap.Len() == 0 {
			return storage.Event{}, false, nil
		}

		top := m.heap.items[0]
		ev, _ := top.Peek()
		top.Pop()
		if _, ok := top.Peek(); ok {
			heap.Fix(m.heap, 0)
		} else {
			heap.Pop(m.heap)
			if err := top.Err(); err != nil {
				// Latch the failure; ev below was already fetched
				// successfully and is still delivered, but the next call
				// reports this error instead of continuing the merge.
				m.err = err
			}
		}

		if !m.excluded && ev.Id == m.excludeID {
			m.excluded = true
			continue
		}
		if m.haveLast && ev.Id == m.lastID {
			continue
		}
		m.haveLast = true
		m.lastID = ev.Id
		m.emitted++
		return ev, true, nil
	}
}

func (m *merger) Close() error {
	var firstErr error
	for _, it := range m.all {
		if err := it.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// shardHeap orders shardIterators by their peeked id; direction flips for
// descending merges.
type shardHeap struct {
	items []*shardIterator
	desc  bool
}

func (h *shardHeap) Len() int { return len(h.items) }

func (h *shardHeap) Less(i, j int) bool {
	a, _ := h.items[i].Peek()
	b, _ := h.items[j].Peek()
	cmp := ktime.Compare(a.Id, b.Id)
	if h.desc {
		return cmp > 0
	}
	return cmp < 0
}

func (h *shardHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *shardHeap) Push(x interface{}) { h.items = append(h.items, x.(*shardIterator)) }

func (h *shardHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
