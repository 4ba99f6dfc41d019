package network

import (
	"errors"
	"slices"
)

var (
	// ErrLengthMismatch is returned by [NewTable] when the id and downstream
	// columns have different lengths.
	ErrLengthMismatch = errors.New("id and downstream columns must have equal length")

	// ErrDuplicateSegment is returned by [NewTable] when the same segment id
	// appears in more than one row. Segment ids must be unique.
	ErrDuplicateSegment = errors.New("duplicate segment id")

	// ErrAttrLengthMismatch is returned by [Table.SetAttr] when an attribute
	// column's length differs from the table's row count.
	ErrAttrLengthMismatch = errors.New("attribute column length must equal row count")
)

// Table is a row-ordered segment attribute table: one row per segment with
// its downstream reference and optional pass-through attribute columns.
// Row order is significant - it drives every deterministic tie-break further
// down the pipeline - and is preserved by all operations.
//
// A Table is immutable by convention: pipeline stages return fresh copies
// rather than mutating their input.
type Table struct {
	ids   []SegmentID
	down  []SegmentID
	index map[SegmentID]int
	attrs map[string][]float64
}

// NewTable creates a table from parallel id and downstream columns.
// Returns ErrLengthMismatch if the columns differ in length, or
// ErrDuplicateSegment if a segment id appears twice.
func NewTable(ids, down []SegmentID) (*Table, error) {
	if len(ids) != len(down) {
		return nil, ErrLengthMismatch
	}
	index := make(map[SegmentID]int, len(ids))
	for i, id := range ids {
		if _, exists := index[id]; exists {
			return nil, ErrDuplicateSegment
		}
		index[id] = i
	}
	return &Table{
		ids:   slices.Clone(ids),
		down:  slices.Clone(down),
		index: index,
	}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.ids) }

// ID returns the segment id of row i.
func (t *Table) ID(i int) SegmentID { return t.ids[i] }

// Downstream returns the downstream reference of row i.
func (t *Table) Downstream(i int) SegmentID { return t.down[i] }

// IDs returns the id column in row order.
// The returned slice is a copy and safe to modify.
func (t *Table) IDs() []SegmentID { return slices.Clone(t.ids) }

// Downstreams returns the downstream column in row order.
// The returned slice is a copy and safe to modify.
func (t *Table) Downstreams() []SegmentID { return slices.Clone(t.down) }

// Row returns the row index of the given segment id and true,
// or 0 and false if the id is not in the table.
func (t *Table) Row(id SegmentID) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// Has reports whether the segment id is a row of the table.
func (t *Table) Has(id SegmentID) bool {
	_, ok := t.index[id]
	return ok
}

// SetAttr attaches a pass-through attribute column (e.g. latitude) to the
// table. The column must have one value per row. Attributes are carried
// through the pipeline by row position and never interpreted.
func (t *Table) SetAttr(name string, values []float64) error {
	if len(values) != len(t.ids) {
		return ErrAttrLengthMismatch
	}
	if t.attrs == nil {
		t.attrs = make(map[string][]float64)
	}
	t.attrs[name] = slices.Clone(values)
	return nil
}

// Attr returns the named attribute column and true, or nil and false.
// The returned slice is a read-only view.
func (t *Table) Attr(name string) ([]float64, bool) {
	v, ok := t.attrs[name]
	return v, ok
}

// AttrNames returns the attribute column names in sorted order.
func (t *Table) AttrNames() []string {
	names := make([]string, 0, len(t.attrs))
	for name := range t.attrs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// WithDownstreams returns a copy of the table with a replacement downstream
// column. Row order, ids, and attributes are shared structure-free copies.
// Panics if the replacement column's length differs from the row count;
// this is an internal consistency bug, not an input error.
func (t *Table) WithDownstreams(down []SegmentID) *Table {
	if len(down) != len(t.ids) {
		panic("network: replacement downstream column length mismatch")
	}
	out := &Table{
		ids:   slices.Clone(t.ids),
		down:  slices.Clone(down),
		index: t.cloneIndex(),
	}
	if t.attrs != nil {
		out.attrs = make(map[string][]float64, len(t.attrs))
		for name, vals := range t.attrs {
			out.attrs[name] = slices.Clone(vals)
		}
	}
	return out
}

// Filter returns a copy of the table keeping only rows for which keep
// returns true, preserving row order. Attribute columns are filtered in
// lockstep. Used to apply spatial masks before normalization.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := &Table{index: make(map[SegmentID]int)}
	var kept []int
	for i := range t.ids {
		if keep(i) {
			out.index[t.ids[i]] = len(out.ids)
			out.ids = append(out.ids, t.ids[i])
			out.down = append(out.down, t.down[i])
			kept = append(kept, i)
		}
	}
	if t.attrs != nil {
		out.attrs = make(map[string][]float64, len(t.attrs))
		for name, vals := range t.attrs {
			filtered := make([]float64, len(kept))
			for j, i := range kept {
				filtered[j] = vals[i]
			}
			out.attrs[name] = filtered
		}
	}
	return out
}

func (t *Table) cloneIndex() map[SegmentID]int {
	index := make(map[SegmentID]int, len(t.index))
	for id, i := range t.index {
		index[id] = i
	}
	return index
}
