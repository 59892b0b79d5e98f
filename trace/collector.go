// Package trace implements the TraceCollector (C12): an append-only,
// bounded ring buffer of pipeline events with O(1) eviction and O(1)
// average lookup by trace_id, grounded on the teacher's bounded
// in-memory store eviction discipline.
package trace

import (
	"sync"

	"github.com/secondbrain/engine/contracts"
)

// Collector is a fixed-capacity ring buffer of TraceEvents. Once full,
// writing a new event evicts the oldest in O(1) and retires its entry
// from the secondary trace_id index.
type Collector struct {
	mu       sync.Mutex
	events   []contracts.TraceEvent
	traceIDs []string
	present  []bool
	head     int // next write slot
	written  int64
	capacity int
	index    map[string][]int64 // trace_id -> absolute sequence numbers
}

// New builds a TraceCollector bounded by maxEvents (default 10000 when
// maxEvents <= 0, matching the reference deployment default).
func New(maxEvents int) *Collector {
	if maxEvents <= 0 {
		maxEvents = 10000
	}
	return &Collector{
		events:   make([]contracts.TraceEvent, maxEvents),
		traceIDs: make([]string, maxEvents),
		present:  make([]bool, maxEvents),
		capacity: maxEvents,
		index:    make(map[string][]int64),
	}
}

// Record appends one event, evicting the oldest if the buffer is full.
func (c *Collector) Record(traceID string, event contracts.TraceEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot := c.head
	if c.present[slot] {
		c.evictLocked(slot)
	}

	c.events[slot] = event
	c.traceIDs[slot] = traceID
	c.present[slot] = true
	seq := c.written
	c.index[traceID] = append(c.index[traceID], seq)

	c.head = (c.head + 1) % c.capacity
	c.written++
}

// evictLocked retires the event at slot from its trace_id's index entry.
// Called with mu held.
func (c *Collector) evictLocked(slot int) {
	evictedTraceID := c.traceIDs[slot]
	ids := c.index[evictedTraceID]
	for i, seq := range ids {
		if seq == c.written-int64(c.capacity) {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(c.index, evictedTraceID)
	} else {
		c.index[evictedTraceID] = ids
	}
}

// oldestValidSeq is the lowest sequence number still present in the
// buffer. Called with mu held.
func (c *Collector) oldestValidSeq() int64 {
	if c.written <= int64(c.capacity) {
		return 0
	}
	return c.written - int64(c.capacity)
}

// GetByID returns every retained event recorded under traceID, oldest
// first.
func (c *Collector) GetByID(traceID string) []contracts.TraceEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	seqs, ok := c.index[traceID]
	if !ok {
		return nil
	}
	oldest := c.oldestValidSeq()
	out := make([]contracts.TraceEvent, 0, len(seqs))
	for _, seq := range seqs {
		if seq < oldest {
			continue
		}
		slot := int(seq % int64(c.capacity))
		out = append(out, c.events[slot])
	}
	return out
}

// Recent returns the n most-recently recorded events, oldest first.
func (c *Collector) Recent(n int) []contracts.TraceEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := n
	if int64(count) > c.written {
		count = int(c.written)
	}
	if count > c.capacity {
		count = c.capacity
	}
	if count <= 0 {
		return nil
	}

	out := make([]contracts.TraceEvent, count)
	start := c.written - int64(count)
	for i := 0; i < count; i++ {
		seq := start + int64(i)
		slot := int(seq % int64(c.capacity))
		out[i] = c.events[slot]
	}
	return out
}
