// Package topology decomposes a river-segment connectivity table into
// independent tailwater-rooted networks and ordered reaches.
//
// The stages form a strictly forward pipeline, each a pure function of the
// previous stage's output:
//
//	raw table
//	  → NormalizeTerminals   (terminal/dangling encoding)
//	  → network.Build        (forward + reverse adjacency arena)
//	  → Partition            (independent networks per tailwater)
//	  → Decompose            (leaf-first ordered reaches per network)
//
// [Organize] composes the stages end to end. Callers needing caching,
// parallel decomposition, or stage timings should use package pipeline,
// which drives the same stage functions.
package topology

import (
	"github.com/matzehuels/tailwater/pkg/errors"
	"github.com/matzehuels/tailwater/pkg/network"
)

// wrapStructural lifts a low-level network error into the coded structural
// error taxonomy, attributing it to the given segment.
func wrapStructural(err error, seg network.SegmentID) error {
	return errors.Structural(err.Error(), int64(seg))
}

// Decomposition is the consistent triple of artifacts produced from one
// source table, plus any normalization warnings.
//
// The invariants callers may rely on:
//   - Connections is total and single-valued over the member set, and
//     every forward walk terminates at an outlet.
//   - Networks partitions the member set: every segment is in exactly one
//     subnet.
//   - Flattening Reaches[t] yields exactly the member set of Networks[t],
//     each segment once, in a valid topological order of its upstream
//     adjacency.
type Decomposition struct {
	// Connections maps every member segment to its normalized downstream
	// reference (member id, own id, or negative boundary marker).
	Connections map[network.SegmentID]network.SegmentID

	// Networks holds the independent networks keyed by tailwater id.
	Networks map[network.SegmentID]*Subnet

	// Reaches holds each network's ordered reach sequence, keyed by
	// tailwater id.
	Reaches map[network.SegmentID][]Reach

	// Tailwaters lists the network keys in source-table order, for
	// deterministic iteration over the maps.
	Tailwaters []network.SegmentID

	// Warnings carries non-fatal normalization ambiguities.
	Warnings []Warning
}

// Organize runs the full decomposition pipeline on a raw segment table.
// The sentinel is the downstream value meaning "no real downstream"
// (flows to ocean or interior sink).
//
// Either a fully consistent Decomposition is returned, or an error
// identifying the offending segment id(s); never a partial result.
func Organize(t *network.Table, sentinel network.SegmentID) (*Decomposition, error) {
	normalized, warnings := NormalizeTerminals(t, sentinel)

	net, err := network.Build(normalized)
	if err != nil {
		return nil, err
	}
	if err := net.Validate(); err != nil {
		seg, _ := network.CycleSegment(err)
		return nil, wrapStructural(err, seg)
	}

	subnets, tailwaters, err := Partition(net)
	if err != nil {
		return nil, err
	}

	reaches := make(map[network.SegmentID][]Reach, len(subnets))
	for _, tw := range tailwaters {
		r, err := Decompose(subnets[tw])
		if err != nil {
			return nil, err
		}
		reaches[tw] = r
	}

	return &Decomposition{
		Connections: net.Connections(),
		Networks:    subnets,
		Reaches:     reaches,
		Tailwaters:  tailwaters,
		Warnings:    warnings,
	}, nil
}

// Flatten concatenates a reach sequence into a single segment order.
func Flatten(reaches []Reach) []network.SegmentID {
	var out []network.SegmentID
	for _, r := range reaches {
		out = append(out, r...)
	}
	return out
}
