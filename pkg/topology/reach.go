package topology

import (
	"github.com/matzehuels/tailwater/pkg/errors"
	"github.com/matzehuels/tailwater/pkg/network"
)

// Reach is an ordered, non-empty, unbranched chain of segments running
// upstream-to-downstream: it starts at a leaf or a junction, continues
// through segments with exactly one upstream parent, and stops immediately
// before the next junction or at the outlet.
type Reach []network.SegmentID

// Decompose splits one independent network into its ordered reaches.
//
// The returned sequence is a valid topological order of the subnet's
// upstream adjacency: every reach appears after all reaches feeding it,
// leaves first, and the tailwater's own terminal reach last. Sibling
// branches feeding the same junction are ordered by the junction's
// upstream-parent list, i.e. source-table order; that tie-break is
// deterministic but carries no semantics.
//
// The traversal is a post-order walk over the chain-dependency structure
// with an explicit stack: recursion depth would otherwise be bounded by
// the junction nesting of a continental network.
func Decompose(s *Subnet) ([]Reach, error) {
	net := s.Net()
	members := s.memberIndexes()

	// Phase 1: cut the subnet into unbranched chains. A chain starts at
	// every leaf and every junction and extends downstream through
	// single-parent segments. The outlet terminates its chain because it
	// has no forward member edge.
	type chain struct {
		segs []int32
	}
	var chains []chain
	lastOf := make(map[int32]int, len(members))
	covered := 0

	for _, start := range members {
		if !net.IsLeaf(start) && !net.IsJunction(start) {
			continue
		}
		segs := []int32{start}
		cur := start
		for {
			next := net.DownstreamIndex(cur)
			if next < 0 || net.InDegree(next) != 1 {
				break
			}
			segs = append(segs, next)
			cur = next
		}
		lastOf[cur] = len(chains)
		chains = append(chains, chain{segs: segs})
		covered += len(segs)
	}

	if covered != len(members) {
		// Interior segments not swept by any chain: the component is not a
		// tree rooted at the outlet.
		return nil, errors.Structural(
			"component does not decompose into chains",
			int64(s.Tailwater()))
	}

	ti, ok := net.Index(s.Tailwater())
	if !ok {
		return nil, errors.New(errors.ErrCodeSegmentNotFound,
			"tailwater %d is not in the network", s.Tailwater())
	}
	rootChain, ok := lastOf[ti]
	if !ok {
		return nil, errors.Structural(
			"no chain terminates at the tailwater",
			int64(s.Tailwater()))
	}

	// Phase 2: emit chains in leaf-first post-order from the terminal
	// chain. A chain depends only on the chains ending at its start
	// segment's upstream parents.
	type frame struct {
		chain int
		next  int // cursor into the start segment's upstream list
	}
	visited := make([]bool, len(chains))
	visited[rootChain] = true
	stack := []frame{{chain: rootChain}}
	out := make([]Reach, 0, len(chains))

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		start := chains[f.chain].segs[0]
		ups := net.UpstreamIndexes(start)

		if f.next < len(ups) {
			p := ups[f.next]
			f.next++
			c, ok := lastOf[p]
			if !ok {
				return nil, errors.Structural(
					"junction parent is not the end of a chain",
					int64(net.ID(p)))
			}
			if !visited[c] {
				visited[c] = true
				stack = append(stack, frame{chain: c})
			}
			continue
		}

		segs := chains[f.chain].segs
		reach := make(Reach, len(segs))
		for k, i := range segs {
			reach[k] = net.ID(i)
		}
		out = append(out, reach)
		stack = stack[:len(stack)-1]
	}

	if len(out) != len(chains) {
		return nil, errors.Structural(
			"reach ordering did not cover every chain",
			int64(s.Tailwater()))
	}

	return out, nil
}
