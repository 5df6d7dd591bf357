package events

import (
	"sort"
	"sync"
)

// Counter is the process-wide frequency table of classified events.
//
// Counts only ever go up and are never persisted: the counter is a
// cache of the event log's statistics, not a view of it, and resets
// with the process. Increment is safe for concurrent handler
// invocations; contention stays low (one short critical section per
// frame), so a single mutex beats per-key machinery here.
type Counter struct {
	mu     sync.Mutex
	counts map[Kind]uint64
	// firstSeen gives ties in TopK a deterministic order within a run.
	firstSeen map[Kind]int
	next      int
}

func NewCounter() *Counter {
	return &Counter{
		counts:    map[Kind]uint64{},
		firstSeen: map[Kind]int{},
	}
}

// Increment adds 1 to the count for kind, creating it at 1 if absent.
func (c *Counter) Increment(kind Kind) {
	c.mu.Lock()
	if _, ok := c.counts[kind]; !ok {
		c.firstSeen[kind] = c.next
		c.next++
	}
	c.counts[kind]++
	c.mu.Unlock()
}

// Count returns the current count for kind (0 if never seen).
func (c *Counter) Count(kind Kind) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[kind]
}

// KindCount is one row of the frequency table.
type KindCount struct {
	Kind  Kind
	Count uint64
}

// TopK returns the n highest-count kinds, descending. Ties break by
// first-seen order.
func (c *Counter) TopK(n int) []KindCount {
	c.mu.Lock()
	type row struct {
		kc   KindCount
		rank int
	}
	rows := make([]row, 0, len(c.counts))
	for k, v := range c.counts {
		rows = append(rows, row{kc: KindCount{Kind: k, Count: v}, rank: c.firstSeen[k]})
	}
	c.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].kc.Count != rows[j].kc.Count {
			return rows[i].kc.Count > rows[j].kc.Count
		}
		return rows[i].rank < rows[j].rank
	})

	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]KindCount, 0, n)
	for _, r := range rows[:n] {
		out = append(out, r.kc)
	}
	return out
}
