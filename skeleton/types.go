package skeleton

import (
	"math"
	"sort"

	"github.com/bloodmagesoftware/skel/geom"
)

// NodeID addresses a node in a Skeleton.
type NodeID int32

// ArcID addresses an arc in a Skeleton.
type ArcID int32

const (
	// NoNode marks the open end of an arc that was still moving when a
	// partial construction stopped.
	NoNode NodeID = -1
	// NoArc marks a wavefront vertex that died where it was born.
	NoArc ArcID = -1
	// NoEdge is the missing side of a border arc.
	NoEdge = -1
)

// ArcKind tags an arc as part of the input boundary or the skeleton proper.
type ArcKind uint8

const (
	Bisector ArcKind = iota
	Border
)

func (k ArcKind) String() string {
	if k == Border {
		return "border"
	}
	return "bisector"
}

// EventKind is one of the topology changes the wavefront goes through.
type EventKind uint8

const (
	EdgeCollapse EventKind = iota
	Split
	MultiCollapse
	// VertexCollision is a split whose hit point is an endpoint of the split
	// edge, so two vertices meet head-on.
	VertexCollision
)

func (k EventKind) String() string {
	switch k {
	case EdgeCollapse:
		return "edge-collapse"
	case Split:
		return "split"
	case MultiCollapse:
		return "multi-collapse"
	case VertexCollision:
		return "vertex-collision"
	}
	return "unknown"
}

// Node is a point of the skeleton. Contour vertices are nodes born at time 0.
type Node struct {
	Pos  geom.Point
	Time float64
	Arcs []ArcID
}

// Degree returns the number of incident arcs.
func (n Node) Degree() int {
	return len(n.Arcs)
}

// Arc connects two nodes. Bisector arcs trace a wavefront vertex (or a
// zero-width ridge) and separate the faces of Edges[0] and Edges[1]. Border
// arcs are input edges; Edges[1] is NoEdge.
type Arc struct {
	Kind   ArcKind
	Source NodeID
	Target NodeID
	Edges  [2]int
	// Birth and Death bound the interval [Birth, Death) during which the arc
	// is part of the moving wavefront. Open arcs have Death = +Inf.
	Birth, Death float64
	// Ray is the trajectory of the traced vertex, used to evaluate open arcs.
	Ray geom.Ray
}

// Open reports whether the arc ends in an unresolved ray.
func (a Arc) Open() bool {
	return a.Target == NoNode
}

// Other returns the endpoint of a opposite to n.
func (a Arc) Other(n NodeID) NodeID {
	if a.Source == n {
		return a.Target
	}
	return a.Source
}

// Edge is an original input edge. Its face in the skeleton is the region
// swept by its offset line.
type Edge struct {
	Line    geom.Line
	From    geom.Point
	To      geom.Point
	Contour int
	Index   int
	// Border is the arc tracing the edge itself.
	Border ArcID
}

// Event is one entry of the ordered event log.
type Event struct {
	Kind  EventKind
	Time  float64
	Point geom.Point
	Node  NodeID
}

// link records that a wavefront vertex got a new successor at time T.
type link struct {
	T    float64
	Next int
}

// Front is the life of one wavefront vertex: where it moved, which edges it
// separated, and which vertex followed it along the wavefront over time.
type Front struct {
	Ray   geom.Ray
	Death float64
	In    int
	Out   int
	Arc   ArcID
	links []link
}

// Alive reports whether the vertex is part of the wavefront at time d.
// A vertex dying at d still counts, a vertex born at d does not.
func (f Front) Alive(d float64) bool {
	return f.Ray.Birth < d && d <= f.Death
}

// Next returns the successor of the vertex on the wavefront at time d,
// using the topology in effect just before any event at d.
func (f Front) Next(d float64) int {
	i := sort.Search(len(f.links), func(i int) bool { return f.links[i].T >= d })
	if i == 0 {
		return -1
	}
	return f.links[i-1].Next
}

// Skeleton is the immutable straight skeleton of one or more polygons.
// All accessors are safe for concurrent use.
type Skeleton struct {
	kernel      geom.Kernel
	contours    []geom.Contour
	edges       []Edge
	nodes       []Node
	arcs        []Arc
	fronts      []Front
	events      []Event
	edgeArcs    [][]ArcID
	partial     bool
	maxTime     float64
	convergence float64
}

// Kernel returns the kernel the skeleton was built with.
func (s *Skeleton) Kernel() geom.Kernel { return s.kernel }

// Contours returns the input contours, outer boundaries before their holes.
func (s *Skeleton) Contours() []geom.Contour { return s.contours }

// Edges returns the original input edges, numbered contour by contour.
func (s *Skeleton) Edges() []Edge { return s.edges }

// Nodes returns every node, contour vertices first.
func (s *Skeleton) Nodes() []Node { return s.nodes }

// Arcs returns every arc, border arcs first.
func (s *Skeleton) Arcs() []Arc { return s.arcs }

// Node returns the node with the given handle.
func (s *Skeleton) Node(id NodeID) Node { return s.nodes[id] }

// Arc returns the arc with the given handle.
func (s *Skeleton) Arc(id ArcID) Arc { return s.arcs[id] }

// Fronts returns the wavefront vertex histories.
func (s *Skeleton) Fronts() []Front { return s.fronts }

// Events returns the processed events in the order they were applied.
func (s *Skeleton) Events() []Event { return s.events }

// Partial reports whether construction stopped at a maximum time.
func (s *Skeleton) Partial() bool { return s.partial }

// MaxTime returns the time bound of a partial skeleton, or +Inf.
func (s *Skeleton) MaxTime() float64 { return s.maxTime }

// ConvergenceTime returns the time of the last event.
func (s *Skeleton) ConvergenceTime() float64 { return s.convergence }

// ArcsOfEdge returns the bisector arcs bounding the face of edge e.
func (s *Skeleton) ArcsOfEdge(e int) []ArcID { return s.edgeArcs[e] }

// Boundary returns the arcs around the face of edge e, starting with its
// border arc and walking from the edge's end back to its start. For a
// partial skeleton the face is open: the chain from the end is followed by
// the chain reaching the start, and the two meet at open arcs.
func (s *Skeleton) Boundary(e int) []ArcID {
	border := s.arcs[s.edges[e].Border]
	used := map[ArcID]bool{}
	chain := []ArcID{s.edges[e].Border}
	forward, closed := s.walkFace(e, border.Target, border.Source, used)
	chain = append(chain, forward...)
	if !closed {
		back, _ := s.walkFace(e, border.Source, border.Target, used)
		for i := len(back) - 1; i >= 0; i-- {
			chain = append(chain, back[i])
		}
	}
	return chain
}

func (s *Skeleton) walkFace(e int, from, stop NodeID, used map[ArcID]bool) ([]ArcID, bool) {
	var out []ArcID
	cur := from
	for cur != stop {
		if cur == NoNode {
			return out, false
		}
		next := NoArc
		for _, a := range s.nodes[cur].Arcs {
			arc := s.arcs[a]
			if used[a] || arc.Kind != Bisector || (arc.Edges[0] != e && arc.Edges[1] != e) {
				continue
			}
			next = a
			break
		}
		if next == NoArc {
			return out, false
		}
		used[next] = true
		out = append(out, next)
		cur = s.arcs[next].Other(cur)
	}
	return out, true
}

// PointAt evaluates a bisector arc at time t.
func (a Arc) PointAt(t float64) geom.Point {
	return a.Ray.At(math.Max(t, a.Birth))
}
