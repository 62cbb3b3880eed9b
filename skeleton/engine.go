package skeleton

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bloodmagesoftware/skel/geom"
)

// vertex is a live wavefront vertex. Its index doubles as its Front index.
type vertex struct {
	version    int
	prev, next int
	in, out    int
	ray        geom.Ray
	node       NodeID
	alive      bool
	stalled    bool
	reflex     bool
}

// engine propagates the wavefront of a single polygon. It owns every slice
// it touches and is never shared between goroutines.
type engine struct {
	k       geom.Kernel
	log     *slog.Logger
	maxTime float64
	now     float64
	last    float64 // time of the last applied event
	alive   int

	contours []geom.Contour
	edges    []Edge
	edgeLive []int
	verts    []vertex
	fronts   []Front
	nodes    []Node
	arcs     []Arc
	events   []Event

	queue   eventQueue
	touched []int
	stalled []int
}

func newEngine(p geom.Polygon, k geom.Kernel, maxTime float64) *engine {
	e := &engine{
		k:       k,
		log:     Logger(),
		maxTime: maxTime,
	}
	for ci, c := range p.Contours() {
		e.addContour(ci, c)
	}
	for v := range e.verts {
		e.motion(v)
	}
	return e
}

func (e *engine) addContour(ci int, c geom.Contour) {
	n := len(c)
	nodeBase := NodeID(len(e.nodes))
	edgeBase := len(e.edges)
	vertBase := len(e.verts)
	e.contours = append(e.contours, c.Clone())
	for _, pt := range c {
		e.addNode(pt, 0)
	}
	for i := range c {
		a, b := c.Edge(i)
		border := e.addArc(Arc{
			Kind:   Border,
			Source: nodeBase + NodeID(i),
			Target: nodeBase + NodeID((i+1)%n),
			Edges:  [2]int{edgeBase + i, NoEdge},
			Ray:    geom.Ray{Origin: a},
		})
		e.edges = append(e.edges, Edge{
			Line:    geom.LineOf(a, b),
			From:    a,
			To:      b,
			Contour: ci,
			Index:   i,
			Border:  border,
		})
		e.edgeLive = append(e.edgeLive, 0)
	}
	for i, pt := range c {
		e.newVertex(
			edgeBase+(i+n-1)%n, edgeBase+i,
			vertBase+(i+n-1)%n, vertBase+(i+1)%n,
			pt, nodeBase+NodeID(i),
		)
	}
}

func (e *engine) addNode(pos geom.Point, t float64) NodeID {
	e.nodes = append(e.nodes, Node{Pos: pos, Time: t})
	return NodeID(len(e.nodes) - 1)
}

func (e *engine) addArc(a Arc) ArcID {
	id := ArcID(len(e.arcs))
	e.arcs = append(e.arcs, a)
	e.nodes[a.Source].Arcs = append(e.nodes[a.Source].Arcs, id)
	if a.Target != NoNode && a.Target != a.Source {
		e.nodes[a.Target].Arcs = append(e.nodes[a.Target].Arcs, id)
	}
	return id
}

func (e *engine) newVertex(in, out, prev, next int, pos geom.Point, node NodeID) int {
	id := len(e.verts)
	ray := geom.Ray{Origin: pos, Birth: e.now}
	e.verts = append(e.verts, vertex{
		prev:  prev,
		next:  next,
		in:    in,
		out:   out,
		ray:   ray,
		node:  node,
		alive: true,
	})
	e.fronts = append(e.fronts, Front{
		Ray:   ray,
		Death: math.Inf(1),
		In:    in,
		Out:   out,
		Arc:   NoArc,
		links: []link{{T: e.now, Next: next}},
	})
	e.edgeLive[out]++
	e.alive++
	e.touch(id)
	return id
}

// motion derives the velocity of v from its two edges. A vertex between
// antiparallel edges has no finite velocity and is parked until a later
// event in the same batch consumes it.
func (e *engine) motion(v int) {
	vx := &e.verts[v]
	in, out := e.edges[vx.in].Line, e.edges[vx.out].Line
	vel, ok := e.k.Bisector(in, out)
	if !ok {
		vx.stalled = true
		vx.ray.Velocity = geom.Vec{}
		e.stalled = append(e.stalled, v)
	} else {
		vx.ray.Velocity = vel
		pos := vx.ray.Origin
		turn := e.k.Orientation(r2.Sub(pos, in.Direction()), pos, r2.Add(pos, out.Direction()))
		vx.reflex = turn == geom.Clockwise
	}
	e.fronts[v].Ray = vx.ray
}

func (e *engine) pos(v int, t float64) geom.Point {
	return e.verts[v].ray.At(t)
}

func (e *engine) current(r vref) bool {
	v := e.verts[r.id]
	return v.alive && v.version == r.version
}

func (e *engine) ref(v int) vref {
	return vref{id: v, version: e.verts[v].version}
}

// touch invalidates queued events of v and marks it for rescheduling.
func (e *engine) touch(v int) {
	e.verts[v].version++
	e.touched = append(e.touched, v)
}

func (e *engine) setNext(v, next int) {
	e.verts[v].next = next
	e.fronts[v].links = append(e.fronts[v].links, link{T: e.now, Next: next})
	e.touch(v)
}

func (e *engine) setPrev(v, prev int) {
	e.verts[v].prev = prev
	e.touch(v)
}

func (e *engine) retire(v int, node NodeID) {
	vx := &e.verts[v]
	vx.alive = false
	vx.version++
	e.alive--
	e.edgeLive[vx.out]--
	e.fronts[v].Death = e.now
	if node != vx.node {
		e.fronts[v].Arc = e.addArc(Arc{
			Kind:   Bisector,
			Source: vx.node,
			Target: node,
			Edges:  [2]int{vx.in, vx.out},
			Birth:  vx.ray.Birth,
			Death:  e.now,
			Ray:    vx.ray,
		})
	}
}

func (e *engine) logEvent(kind EventKind, p geom.Point, node NodeID) {
	e.events = append(e.events, Event{Kind: kind, Time: e.now, Point: p, Node: node})
	e.last = e.now
	e.log.Debug("skeleton event", "kind", kind, "time", e.now, "x", p.X, "y", p.Y)
}

// schedule queues the next collapse of the edge leaving v and, for reflex
// vertices, a split candidate against every edge still on the wavefront.
func (e *engine) schedule(v int) {
	vx := e.verts[v]
	if !vx.alive {
		return
	}
	e.scheduleCollapse(v)
	if !vx.reflex || vx.stalled {
		return
	}
	for ei := range e.edges {
		if ei == vx.in || ei == vx.out || e.edgeLive[ei] == 0 {
			continue
		}
		t, ok := e.k.Hit(vx.ray, e.edges[ei].Line)
		if !ok || e.k.CompareTime(t, e.now) < 0 {
			continue
		}
		e.queue.push(candidate{typ: splitCandidate, time: math.Max(t, e.now), a: e.ref(v), b: vref{id: -1}, edge: ei})
	}
}

// scheduleCollapse queues the time at which the edge leaving v shrinks to
// nothing.
func (e *engine) scheduleCollapse(v int) {
	vx := e.verts[v]
	w := vx.next
	if !vx.alive || w == v || !e.verts[w].alive {
		return
	}
	wx := e.verts[w]
	switch {
	case vx.stalled || wx.stalled:
		if e.k.Equal(e.pos(v, e.now), e.pos(w, e.now)) {
			e.queue.push(candidate{typ: collapseCandidate, time: e.now, a: e.ref(v), b: e.ref(w), edge: vx.out})
		}
	default:
		if t, ok := e.k.Meet(vx.ray, wx.ray); ok && e.k.CompareTime(t, e.now) >= 0 {
			e.queue.push(candidate{typ: collapseCandidate, time: math.Max(t, e.now), a: e.ref(v), b: e.ref(w), edge: vx.out})
		}
	}
}

// flush reschedules every touched vertex. A touch also voids the collapse
// candidate of the edge entering the vertex, so that edge is queued again
// from its start.
func (e *engine) flush() {
	seen := make(map[int]bool, len(e.touched))
	for _, v := range e.touched {
		if seen[v] {
			continue
		}
		seen[v] = true
		e.schedule(v)
	}
	for _, v := range e.touched {
		p := e.verts[v].prev
		if !e.verts[v].alive || seen[p] {
			continue
		}
		seen[p] = true
		e.scheduleCollapse(p)
	}
	e.touched = e.touched[:0]
}

// run drains the queue one batch of equal-time events at a time until the
// wavefront is gone or the next batch lies past the time bound.
func (e *engine) run() error {
	e.flush()
	horizon := false
	for e.alive > 0 && e.queue.Len() > 0 {
		next := e.queue.peek()
		if e.k.CompareTime(next.time, e.maxTime) > 0 {
			horizon = true
			break
		}
		if next.time > e.now {
			e.now = next.time
		}
		limit := 8*len(e.verts) + 64
		for rounds := 0; e.queue.Len() > 0 && e.k.CompareTime(e.queue.peek().time, e.now) <= 0; rounds++ {
			if rounds > limit {
				return fmt.Errorf("%w: events at t=%g do not settle", ErrNumericDegeneracy, e.now)
			}
			batch := e.popBatch()
			e.log.Debug("skeleton batch", "time", e.now, "size", len(batch))
			for _, c := range batch {
				e.apply(c)
			}
			e.flush()
		}
		if err := e.checkStalled(); err != nil {
			return err
		}
	}
	if e.alive > 0 && !horizon {
		e.log.Warn("wavefront left without events", "vertices", e.alive, "time", e.now)
		return fmt.Errorf("%w: %d wavefront vertices left with no pending event at t=%g",
			ErrNumericDegeneracy, e.alive, e.now)
	}
	if e.alive > 0 {
		for v := range e.verts {
			vx := e.verts[v]
			if !vx.alive {
				continue
			}
			e.fronts[v].Arc = e.addArc(Arc{
				Kind:   Bisector,
				Source: vx.node,
				Target: NoNode,
				Edges:  [2]int{vx.in, vx.out},
				Birth:  vx.ray.Birth,
				Death:  math.Inf(1),
				Ray:    vx.ray,
			})
		}
	}
	return nil
}

func (e *engine) popBatch() []candidate {
	var batch []candidate
	for e.queue.Len() > 0 && e.k.CompareTime(e.queue.peek().time, e.now) <= 0 {
		batch = append(batch, e.queue.pop())
	}
	sort.SliceStable(batch, func(i, j int) bool { return batch[i].tieLess(batch[j]) })
	return batch
}

func (e *engine) checkStalled() error {
	for _, v := range e.stalled {
		if e.verts[v].alive {
			e.log.Warn("wavefront vertex stuck between antiparallel edges", "vertex", v, "time", e.now)
			return fmt.Errorf("%w: vertex %d between antiparallel edges at t=%g", ErrNumericDegeneracy, v, e.now)
		}
	}
	e.stalled = e.stalled[:0]
	return nil
}

func (e *engine) apply(c candidate) {
	at := math.Max(c.time, e.now)
	switch c.typ {
	case collapseCandidate:
		if !e.current(c.a) || !e.current(c.b) || e.verts[c.a.id].next != c.b.id {
			return
		}
		p := r2.Scale(0.5, r2.Add(e.pos(c.a.id, at), e.pos(c.b.id, at)))
		e.collapse(c.a.id, c.b.id, p, at)
	case splitCandidate:
		if !e.current(c.a) {
			return
		}
		v := c.a.id
		p := e.pos(v, at)
		a := e.findSegment(c.edge, v, p, at)
		if a < 0 {
			return
		}
		b := e.verts[a].next
		switch {
		case e.k.Equal(p, e.pos(a, at)):
			e.collide(v, a, p, at)
		case e.k.Equal(p, e.pos(b, at)):
			e.collide(v, b, p, at)
		default:
			e.split(v, a, b, c.edge, p)
		}
	}
}

// findSegment returns the live vertex starting the piece of edge ei that
// contains p at time t, or -1.
func (e *engine) findSegment(ei, v int, p geom.Point, t float64) int {
	for a := range e.verts {
		ax := e.verts[a]
		if !ax.alive || ax.out != ei || a == v || ax.next == v {
			continue
		}
		if e.k.OnSegment(p, e.pos(a, t), e.pos(ax.next, t)) {
			return a
		}
	}
	return -1
}

func (e *engine) loop(v int) []int {
	out := []int{v}
	for w := e.verts[v].next; w != v && len(out) <= len(e.verts); w = e.verts[w].next {
		out = append(out, w)
	}
	return out
}

// collapse merges u, w and every neighbour that reached p at the same time
// into one vertex. When the whole loop meets at p the loop is gone.
func (e *engine) collapse(u, w int, p geom.Point, at float64) {
	ring := e.loop(u)
	peak := true
	for _, v := range ring {
		if !e.k.Equal(e.pos(v, at), p) {
			peak = false
			break
		}
	}
	node := e.addNode(p, e.now)
	if peak {
		for _, v := range ring {
			e.retire(v, node)
		}
		kind := EdgeCollapse
		if len(ring) > 2 {
			kind = MultiCollapse
		}
		e.logEvent(kind, p, node)
		return
	}

	start, end := u, w
	for prev := e.verts[start].prev; prev != end && e.k.Equal(e.pos(prev, at), p); prev = e.verts[start].prev {
		start = prev
	}
	for next := e.verts[end].next; next != start && e.k.Equal(e.pos(next, at), p); next = e.verts[end].next {
		end = next
	}

	in, out := e.verts[start].in, e.verts[end].out
	prev, next := e.verts[start].prev, e.verts[end].next
	count := 0
	for v := start; ; v = e.verts[v].next {
		e.retire(v, node)
		count++
		if v == end {
			break
		}
	}
	m := e.newVertex(in, out, prev, next, p, node)
	e.setNext(prev, m)
	e.setPrev(next, m)
	e.finalize(m)

	kind := EdgeCollapse
	if count > 2 {
		kind = MultiCollapse
	}
	e.logEvent(kind, p, node)
}

// split cuts edge ei, running from a to b, where reflex vertex v hits it.
func (e *engine) split(v, a, b, ei int, p geom.Point) {
	vx := e.verts[v]
	node := e.addNode(p, e.now)
	e.retire(v, node)
	v1 := e.newVertex(vx.in, ei, vx.prev, b, p, node)
	v2 := e.newVertex(ei, vx.out, a, vx.next, p, node)
	e.setNext(vx.prev, v1)
	e.setPrev(b, v1)
	e.setNext(a, v2)
	e.setPrev(vx.next, v2)
	e.finalize(v1)
	e.finalize(v2)
	e.logEvent(Split, p, node)
}

// collide handles two vertices meeting at p. Neighbours simply collapse;
// otherwise both are replaced by two vertices that swap partners, which
// splits one loop in two or joins two loops into one.
func (e *engine) collide(v, w int, p geom.Point, at float64) {
	switch {
	case e.verts[v].next == w:
		e.collapse(v, w, p, at)
		return
	case e.verts[w].next == v:
		e.collapse(w, v, p, at)
		return
	}
	vx, wx := e.verts[v], e.verts[w]
	node := e.addNode(p, e.now)
	e.retire(v, node)
	e.retire(w, node)
	x1 := e.newVertex(vx.in, wx.out, vx.prev, wx.next, p, node)
	x2 := e.newVertex(wx.in, vx.out, wx.prev, vx.next, p, node)
	e.setNext(vx.prev, x1)
	e.setPrev(wx.next, x1)
	e.setNext(wx.prev, x2)
	e.setPrev(vx.next, x2)
	e.finalize(x1)
	e.finalize(x2)
	e.logEvent(VertexCollision, p, node)
}

// finalize gives a freshly created vertex its motion, or closes its loop
// when only two vertices are left: the two edges then lie on one line and
// the loop degenerates into a ridge between the vertices.
func (e *engine) finalize(v int) {
	vx := e.verts[v]
	if !vx.alive {
		return
	}
	if vx.next == v {
		e.retire(v, vx.node)
		return
	}
	if vx.next == vx.prev {
		e.ridge(v, vx.next)
		return
	}
	e.motion(v)
}

func (e *engine) ridge(x, y int) {
	nx, ny := NoNode, NoNode
	if e.k.CompareTime(e.verts[x].ray.Birth, e.now) == 0 {
		nx = e.verts[x].node
	}
	if e.k.CompareTime(e.verts[y].ray.Birth, e.now) == 0 {
		ny = e.verts[y].node
	}
	px, py := e.pos(x, e.now), e.pos(y, e.now)
	if nx == NoNode {
		if ny != NoNode && e.k.Equal(px, e.nodes[ny].Pos) {
			nx = ny
		} else {
			nx = e.addNode(px, e.now)
		}
	}
	if ny == NoNode {
		if e.k.Equal(py, e.nodes[nx].Pos) {
			ny = nx
		} else {
			ny = e.addNode(py, e.now)
		}
	}
	if nx != ny {
		e.addArc(Arc{
			Kind:   Bisector,
			Source: nx,
			Target: ny,
			Edges:  [2]int{e.verts[x].out, e.verts[y].out},
			Birth:  e.now,
			Death:  e.now,
			Ray:    geom.Ray{Origin: e.nodes[nx].Pos, Birth: e.now},
		})
	}
	e.retire(x, nx)
	e.retire(y, ny)
}

func (e *engine) skeleton(partial bool) *Skeleton {
	s := &Skeleton{
		kernel:      e.k,
		contours:    e.contours,
		edges:       e.edges,
		nodes:       e.nodes,
		arcs:        e.arcs,
		fronts:      e.fronts,
		events:      e.events,
		partial:     partial,
		maxTime:     e.maxTime,
		convergence: e.last,
	}
	s.indexEdges()
	return s
}

func (s *Skeleton) indexEdges() {
	s.edgeArcs = make([][]ArcID, len(s.edges))
	for id, a := range s.arcs {
		if a.Kind != Bisector {
			continue
		}
		for _, ei := range a.Edges {
			if ei != NoEdge {
				s.edgeArcs[ei] = append(s.edgeArcs[ei], ArcID(id))
			}
		}
	}
}
