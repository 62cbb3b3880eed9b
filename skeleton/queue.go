package skeleton

import "container/heap"

type eventType uint8

const (
	collapseCandidate eventType = iota
	splitCandidate
)

// vref names a wavefront vertex as it was when an event was computed. The
// event is stale once the vertex's version moves on.
type vref struct {
	id      int
	version int
}

// candidate is a queued, not yet validated event.
type candidate struct {
	typ  eventType
	time float64
	a, b vref // collapse: a.next == b; split: a is the reflex vertex
	edge int  // split: original edge hit by a
}

// less orders candidates by time, then by the identity of the vertices and
// edges involved, so equal-time events are applied in a fixed order.
func (c candidate) less(o candidate) bool {
	if c.time != o.time {
		return c.time < o.time
	}
	return c.tieLess(o)
}

func (c candidate) tieLess(o candidate) bool {
	if ci, oi := c.minID(), o.minID(); ci != oi {
		return ci < oi
	}
	if c.typ != o.typ {
		return c.typ < o.typ
	}
	if c.edge != o.edge {
		return c.edge < o.edge
	}
	return c.b.id < o.b.id
}

func (c candidate) minID() int {
	if c.typ == collapseCandidate && c.b.id < c.a.id {
		return c.b.id
	}
	return c.a.id
}

type eventQueue []candidate

func (q eventQueue) Len() int           { return len(q) }
func (q eventQueue) Less(i, j int) bool { return q[i].less(q[j]) }
func (q eventQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)        { *q = append(*q, x.(candidate)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

func (q *eventQueue) push(c candidate) { heap.Push(q, c) }
func (q *eventQueue) pop() candidate   { return heap.Pop(q).(candidate) }
func (q eventQueue) peek() candidate   { return q[0] }
