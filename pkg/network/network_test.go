package network

import (
	"errors"
	"testing"
)

func mustTable(t *testing.T, ids, down []SegmentID) *Table {
	t.Helper()
	table, err := NewTable(ids, down)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return table
}

func TestNewTableLengthMismatch(t *testing.T) {
	_, err := NewTable([]SegmentID{1, 2}, []SegmentID{3})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("NewTable() error = %v, want ErrLengthMismatch", err)
	}
}

func TestNewTableDuplicateSegment(t *testing.T) {
	_, err := NewTable([]SegmentID{1, 2, 1}, []SegmentID{2, 3, 2})
	if !errors.Is(err, ErrDuplicateSegment) {
		t.Errorf("NewTable() error = %v, want ErrDuplicateSegment", err)
	}
}

func TestBuildAdjacency(t *testing.T) {
	// 1 → 3 ← 2, 3 → -3 (boundary outlet)
	table := mustTable(t,
		[]SegmentID{1, 2, 3},
		[]SegmentID{3, 3, -3})

	net, err := Build(table)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if net.Len() != 3 {
		t.Errorf("Len() = %d, want 3", net.Len())
	}

	to, ok := net.Downstream(1)
	if !ok || to != 3 {
		t.Errorf("Downstream(1) = %d, %v, want 3, true", to, ok)
	}

	up := net.Upstream(3)
	if len(up) != 2 || up[0] != 1 || up[1] != 2 {
		t.Errorf("Upstream(3) = %v, want [1 2]", up)
	}

	i, _ := net.Index(3)
	if !net.IsJunction(i) {
		t.Error("segment 3 should be a junction")
	}
	if !net.IsOutlet(i) {
		t.Error("segment 3 should be an outlet")
	}

	j, _ := net.Index(1)
	if !net.IsLeaf(j) {
		t.Error("segment 1 should be a leaf")
	}

	tws := net.Tailwaters()
	if len(tws) != 1 || tws[0] != 3 {
		t.Errorf("Tailwaters() = %v, want [3]", tws)
	}
}

func TestBuildSelfLoopOutlet(t *testing.T) {
	table := mustTable(t,
		[]SegmentID{7, 8},
		[]SegmentID{8, 8}) // 8 is a true outlet self-loop

	net, err := Build(table)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	i, _ := net.Index(8)
	if !net.IsOutlet(i) {
		t.Error("self-loop segment should be an outlet")
	}
	if net.DownstreamIndex(i) != -1 {
		t.Errorf("DownstreamIndex(outlet) = %d, want -1", net.DownstreamIndex(i))
	}

	// The self-loop must not count as an upstream parent.
	if got := net.InDegree(i); got != 1 {
		t.Errorf("InDegree(8) = %d, want 1 (only segment 7)", got)
	}
}

func TestBuildUnknownSegment(t *testing.T) {
	table := mustTable(t,
		[]SegmentID{1, 2},
		[]SegmentID{2, 99}) // 99 positive and not a member: not normalized

	_, err := Build(table)
	if !errors.Is(err, ErrUnknownSegment) {
		t.Fatalf("Build() error = %v, want ErrUnknownSegment", err)
	}
	if id, ok := UnknownSegment(err); !ok || id != 99 {
		t.Errorf("UnknownSegment() = %d, %v, want 99, true", id, ok)
	}
}

func TestConnectionsSnapshot(t *testing.T) {
	table := mustTable(t,
		[]SegmentID{1, 2},
		[]SegmentID{2, -2})

	net, err := Build(table)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	conn := net.Connections()
	if conn[1] != 2 || conn[2] != -2 {
		t.Errorf("Connections() = %v, want map[1:2 2:-2]", conn)
	}
}

func TestReverseIncludesMarkers(t *testing.T) {
	table := mustTable(t,
		[]SegmentID{1, 2},
		[]SegmentID{2, -2})

	net, err := Build(table)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	rconn := net.Reverse()
	if got := rconn[2]; len(got) != 1 || got[0] != 1 {
		t.Errorf("Reverse()[2] = %v, want [1]", got)
	}
	// The synthetic marker gets an entry so every Connections value is a key.
	if got := rconn[-2]; len(got) != 1 || got[0] != 2 {
		t.Errorf("Reverse()[-2] = %v, want [2]", got)
	}
	if got, ok := rconn[1]; !ok || got != nil {
		t.Errorf("Reverse()[1] = %v, %v, want nil entry present", got, ok)
	}
}

func TestValidateAcyclic(t *testing.T) {
	table := mustTable(t,
		[]SegmentID{1, 2, 3},
		[]SegmentID{2, 3, -3})

	net, err := Build(table)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := net.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	// 1 → 2 → 3 → 1: a true cycle, no outlet.
	table := mustTable(t,
		[]SegmentID{1, 2, 3},
		[]SegmentID{2, 3, 1})

	net, err := Build(table)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	err = net.Validate()
	if !errors.Is(err, ErrCyclic) {
		t.Fatalf("Validate() = %v, want ErrCyclic", err)
	}
	if _, ok := CycleSegment(err); !ok {
		t.Error("CycleSegment() should identify a segment on the cycle")
	}
}

func TestTableFilter(t *testing.T) {
	table := mustTable(t,
		[]SegmentID{1, 2, 3, 4},
		[]SegmentID{2, 3, 4, 0})
	if err := table.SetAttr("lat", []float64{41.1, 41.2, 41.3, 41.4}); err != nil {
		t.Fatalf("SetAttr() error = %v", err)
	}

	mask := map[SegmentID]bool{1: true, 2: true, 4: true}
	filtered := table.Filter(func(row int) bool { return mask[table.ID(row)] })

	if filtered.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", filtered.Len())
	}
	if filtered.ID(2) != 4 {
		t.Errorf("ID(2) = %d, want 4", filtered.ID(2))
	}
	if filtered.Has(3) {
		t.Error("filtered table should not contain segment 3")
	}

	lat, ok := filtered.Attr("lat")
	if !ok || len(lat) != 3 || lat[2] != 41.4 {
		t.Errorf("Attr(lat) = %v, %v, want filtered in lockstep", lat, ok)
	}
}

func TestTableWithDownstreams(t *testing.T) {
	table := mustTable(t,
		[]SegmentID{1, 2},
		[]SegmentID{2, 0})

	replaced := table.WithDownstreams([]SegmentID{2, -2})

	if table.Downstream(1) != 0 {
		t.Error("WithDownstreams must not mutate the original table")
	}
	if replaced.Downstream(1) != -2 {
		t.Errorf("Downstream(1) = %d, want -2", replaced.Downstream(1))
	}
}
