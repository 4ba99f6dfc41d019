package topology

import (
	"github.com/matzehuels/tailwater/pkg/network"
)

// Warning reports a non-fatal normalization ambiguity: a row whose original
// downstream reference was the terminal sentinel while the sentinel itself
// is not a member id, so the self-loop rewrite and the dangling negation
// both applied. The negated self-loop wins.
type Warning struct {
	Segment  network.SegmentID // Row id
	Original network.SegmentID // Downstream reference before normalization
	Resolved network.SegmentID // Downstream reference after normalization
}

// NormalizeTerminals rewrites the downstream column of a segment table into
// the self-consistent terminal encoding the rest of the pipeline assumes.
//
// Two independent passes run in a fixed order:
//
//  1. Every row whose downstream reference equals sentinel is rewritten to
//     the row's own id, marking a true outlet as a self-loop.
//  2. Every row whose ORIGINAL downstream reference is not a member id has
//     its (possibly already rewritten) reference negated, marking a
//     boundary outlet - a reference to a segment cropped out of the domain.
//     A zero reference cannot carry the negative marker, so a dangling zero
//     (possible when the sentinel is nonzero) marks the row's own id
//     instead, the same encoding a sentinel outlet gets.
//
// The sentinel is normally not a member id, so both passes apply to true
// outlets and they end as negated self-loops (to == -id). In the degenerate
// case where the sentinel is itself a member id, pass 2 does not fire and
// the positive self-loop survives; rows in the normal case are reported as
// Warnings so callers can audit the precedence.
//
// No error is ever returned: malformed references are absorbed into the
// negative-marker convention. Callers needing strict validation must check
// the table before this step.
func NormalizeTerminals(t *network.Table, sentinel network.SegmentID) (*network.Table, []Warning) {
	down := t.Downstreams()
	var warnings []Warning

	for i := range down {
		if down[i] == sentinel {
			down[i] = t.ID(i)
		}
	}

	sentinelMember := t.Has(sentinel)
	for i := range down {
		orig := t.Downstream(i)
		if t.Has(orig) {
			continue
		}
		if down[i] == 0 {
			down[i] = t.ID(i)
		}
		down[i] = -down[i]
		if orig == sentinel && !sentinelMember {
			warnings = append(warnings, Warning{
				Segment:  t.ID(i),
				Original: orig,
				Resolved: down[i],
			})
		}
	}

	return t.WithDownstreams(down), warnings
}

// ExtractConnections projects a normalized table into the single-valued
// forward adjacency: every member id mapped to its downstream reference.
// Returns an error if a positive, non-self downstream reference is not a
// member id, which indicates the table was not normalized.
func ExtractConnections(t *network.Table) (map[network.SegmentID]network.SegmentID, error) {
	net, err := network.Build(t)
	if err != nil {
		return nil, err
	}
	return net.Connections(), nil
}

// ReverseConnections inverts a normalized table's forward adjacency into
// the multi-valued upstream adjacency. Every id appearing as a key or
// value of the forward adjacency gets an entry (possibly nil), so leaf
// detection by empty list is reliable. Upstream lists are in source-table
// order.
func ReverseConnections(t *network.Table) (map[network.SegmentID][]network.SegmentID, error) {
	net, err := network.Build(t)
	if err != nil {
		return nil, err
	}
	return net.Reverse(), nil
}
