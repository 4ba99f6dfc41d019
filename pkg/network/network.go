// Package network provides the in-memory representation of a river-segment
// connectivity network: a row-ordered attribute table and a dense,
// index-based adjacency structure built from it.
//
// Segment ids are sparse integers (e.g. NHDPlus-style nine-digit COMIDs),
// so the adjacency is stored as an arena: every segment is assigned a dense
// index in source-table order, forward and reverse adjacency are plain
// slices over those indexes, and an id↔index lookup lives at the boundary.
// This keeps traversals cache-friendly at continental scale.
//
// The package only represents networks; the pipeline stages that transform
// them (normalization, partitioning, reach decomposition) live in
// package topology.
package network

import (
	"errors"
	"slices"
)

// SegmentID is the signed integer identifier of a river segment.
// Negative values are reserved for synthetic boundary-outlet markers:
// a segment whose original downstream reference pointed outside the known
// segment set has its reference negated during normalization.
type SegmentID int64

var (
	// ErrUnknownSegment is returned by accessors when a segment id is not a
	// member of the network.
	ErrUnknownSegment = errors.New("unknown segment id")

	// ErrCyclic is returned by [Net.Validate] when a forward walk revisits a
	// segment without passing through an outlet, i.e. the graph contains a
	// cycle not attributable to a recognized outlet self-loop.
	ErrCyclic = errors.New("graph contains a cycle not rooted at an outlet")
)

// Net is the forward and reverse adjacency of a normalized segment table.
//
// The forward adjacency is single-valued: every member segment has exactly
// one downstream reference, which is either another member, the segment
// itself (true outlet self-loop), or a negative marker (boundary outlet).
// The reverse adjacency lists each member's upstream parents in
// source-table order, which fixes every downstream tie-break.
//
// Net is immutable after Build and safe for concurrent readers.
type Net struct {
	ids    []SegmentID
	index  map[SegmentID]int32
	downID []SegmentID // normalized downstream reference per index
	down   []int32     // member index of downID, or -1 for self-loops and markers
	up     [][]int32   // upstream member indexes, source-table order
}

// Build constructs the adjacency arena from a normalized table.
// The table must already be normalized (see topology.NormalizeTerminals):
// every downstream reference is a member id, the row's own id, or negative.
//
// Build treats a self-loop or a non-member reference as terminal for the
// forward walk; it does not verify normalization beyond that. Returns
// ErrUnknownSegment wrapped with the offending id if a positive, non-self
// downstream reference is not a member of the table.
func Build(t *Table) (*Net, error) {
	n := t.Len()
	net := &Net{
		ids:    t.IDs(),
		index:  make(map[SegmentID]int32, n),
		downID: t.Downstreams(),
		down:   make([]int32, n),
		up:     make([][]int32, n),
	}
	for i, id := range net.ids {
		net.index[id] = int32(i)
	}

	for i := 0; i < n; i++ {
		to := net.downID[i]
		switch {
		case to == net.ids[i] || to < 0:
			// Outlet: self-loop or boundary marker, no forward member edge.
			net.down[i] = -1
		default:
			j, ok := net.index[to]
			if !ok {
				return nil, errorUnknown(to)
			}
			net.down[i] = j
			net.up[j] = append(net.up[j], int32(i))
		}
	}
	return net, nil
}

func errorUnknown(id SegmentID) error {
	return &unknownSegmentError{id: id}
}

type unknownSegmentError struct{ id SegmentID }

func (e *unknownSegmentError) Error() string {
	return "unknown segment id in downstream column"
}

func (e *unknownSegmentError) Unwrap() error { return ErrUnknownSegment }

// ID returns the offending segment id.
func (e *unknownSegmentError) ID() SegmentID { return e.id }

// Len returns the number of member segments.
func (n *Net) Len() int { return len(n.ids) }

// IDs returns all member segment ids in source-table order.
// The returned slice is a copy and safe to modify.
func (n *Net) IDs() []SegmentID { return slices.Clone(n.ids) }

// ID returns the segment id at dense index i.
func (n *Net) ID(i int32) SegmentID { return n.ids[i] }

// Index returns the dense index of the given segment id and true,
// or 0 and false if the id is not a member.
func (n *Net) Index(id SegmentID) (int32, bool) {
	i, ok := n.index[id]
	return i, ok
}

// Has reports whether the segment id is a member of the network.
func (n *Net) Has(id SegmentID) bool {
	_, ok := n.index[id]
	return ok
}

// Downstream returns the normalized downstream reference of the segment
// and true, or 0 and false if the id is not a member. The reference is a
// member id, the segment's own id (true outlet), or a negative marker
// (boundary outlet).
func (n *Net) Downstream(id SegmentID) (SegmentID, bool) {
	i, ok := n.index[id]
	if !ok {
		return 0, false
	}
	return n.downID[i], true
}

// DownstreamIndex returns the dense index of segment i's downstream member,
// or -1 when the segment is an outlet (self-loop or boundary marker).
func (n *Net) DownstreamIndex(i int32) int32 { return n.down[i] }

// DownstreamID returns the normalized downstream reference of segment i.
func (n *Net) DownstreamID(i int32) SegmentID { return n.downID[i] }

// Upstream returns the upstream parent ids of the segment in source-table
// order. Returns nil for leaves and for non-member ids.
func (n *Net) Upstream(id SegmentID) []SegmentID {
	i, ok := n.index[id]
	if !ok {
		return nil
	}
	parents := make([]SegmentID, len(n.up[i]))
	for k, j := range n.up[i] {
		parents[k] = n.ids[j]
	}
	return parents
}

// UpstreamIndexes returns the upstream parent indexes of segment i in
// source-table order. The returned slice is a read-only view.
func (n *Net) UpstreamIndexes(i int32) []int32 { return n.up[i] }

// InDegree returns the number of upstream parents of segment i.
func (n *Net) InDegree(i int32) int { return len(n.up[i]) }

// IsJunction reports whether segment i has two or more upstream parents.
func (n *Net) IsJunction(i int32) bool { return len(n.up[i]) >= 2 }

// IsLeaf reports whether segment i has no upstream parents.
func (n *Net) IsLeaf(i int32) bool { return len(n.up[i]) == 0 }

// IsOutlet reports whether segment i is a tailwater: its downstream
// reference is itself (true outlet) or negative (boundary outlet).
func (n *Net) IsOutlet(i int32) bool {
	return n.downID[i] == n.ids[i] || n.downID[i] < 0
}

// Tailwaters returns the outlet segment ids in source-table order.
func (n *Net) Tailwaters() []SegmentID {
	var tws []SegmentID
	for i := range n.ids {
		if n.IsOutlet(int32(i)) {
			tws = append(tws, n.ids[i])
		}
	}
	return tws
}

// Connections returns a snapshot of the single-valued forward adjacency:
// every member id mapped to its normalized downstream reference.
// The map is freshly allocated and safe to modify.
func (n *Net) Connections() map[SegmentID]SegmentID {
	conn := make(map[SegmentID]SegmentID, len(n.ids))
	for i, id := range n.ids {
		conn[id] = n.downID[i]
	}
	return conn
}

// Reverse returns a snapshot of the multi-valued upstream adjacency,
// including entries for synthetic markers and self-loop targets so that
// every id appearing as a key or value of Connections has an entry.
// Upstream lists are in source-table order.
func (n *Net) Reverse() map[SegmentID][]SegmentID {
	rconn := make(map[SegmentID][]SegmentID, len(n.ids))
	for _, id := range n.ids {
		rconn[id] = nil
	}
	for i, id := range n.ids {
		to := n.downID[i]
		rconn[to] = append(rconn[to], id)
	}
	return rconn
}

// Validate walks the forward adjacency from every segment and verifies that
// each walk reaches an outlet in finitely many steps. Returns ErrCyclic
// wrapped with a sample offending segment id if a true cycle exists.
//
// Runs in O(N) using white/gray/black coloring over the dense indexes.
func (n *Net) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make([]uint8, len(n.ids))
	for start := range n.ids {
		if color[start] != white {
			continue
		}
		i := int32(start)
		var path []int32
		for i >= 0 && color[i] == white {
			color[i] = gray
			path = append(path, i)
			i = n.down[i]
		}
		if i >= 0 && color[i] == gray {
			return &cyclicError{id: n.ids[i]}
		}
		for _, j := range path {
			color[j] = black
		}
	}
	return nil
}

type cyclicError struct{ id SegmentID }

func (e *cyclicError) Error() string {
	return "cycle detected in forward adjacency"
}

func (e *cyclicError) Unwrap() error { return ErrCyclic }

// ID returns a segment id on the offending cycle.
func (e *cyclicError) ID() SegmentID { return e.id }

// CycleSegment extracts a segment id on the offending cycle from an error
// returned by Validate. Returns 0 and false for other errors.
func CycleSegment(err error) (SegmentID, bool) {
	var ce *cyclicError
	if errors.As(err, &ce) {
		return ce.id, true
	}
	return 0, false
}

// UnknownSegment extracts the offending id from an ErrUnknownSegment error
// returned by Build. Returns 0 and false for other errors.
func UnknownSegment(err error) (SegmentID, bool) {
	var ue *unknownSegmentError
	if errors.As(err, &ue) {
		return ue.id, true
	}
	return 0, false
}
