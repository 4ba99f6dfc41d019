package topology

import (
	"github.com/matzehuels/tailwater/pkg/errors"
	"github.com/matzehuels/tailwater/pkg/network"
)

// maxReported caps how many offending segment ids a structural error
// carries; the rest would only repeat the diagnosis.
const maxReported = 16

// Subnet is one independent network: the segments upstream-reachable from
// a single tailwater, including the tailwater itself, with the upstream
// adjacency restricted to exactly that set.
//
// Members are stored as dense indexes into the parent Net in traversal
// discovery order (tailwater first). A Subnet is immutable and safe for
// concurrent readers.
type Subnet struct {
	tailwater network.SegmentID
	net       *network.Net
	members   []int32
}

// Tailwater returns the outlet segment id this subnet drains to.
func (s *Subnet) Tailwater() network.SegmentID { return s.tailwater }

// Size returns the number of member segments.
func (s *Subnet) Size() int { return len(s.members) }

// Members returns the member segment ids in discovery order,
// tailwater first. The returned slice is a copy and safe to modify.
func (s *Subnet) Members() []network.SegmentID {
	ids := make([]network.SegmentID, len(s.members))
	for k, i := range s.members {
		ids[k] = s.net.ID(i)
	}
	return ids
}

// Contains reports whether the segment id is a member of the subnet.
// Membership is closed under upstream traversal, so a member's parents are
// always members too.
func (s *Subnet) Contains(id network.SegmentID) bool {
	i, ok := s.net.Index(id)
	if !ok {
		return false
	}
	for _, m := range s.members {
		if m == i {
			return true
		}
	}
	return false
}

// Net returns the parent network the subnet indexes into.
func (s *Subnet) Net() *network.Net { return s.net }

// Reverse returns the upstream adjacency restricted to the subnet's
// members: every member id mapped to its upstream parents in source-table
// order. The map is freshly allocated and safe to modify.
func (s *Subnet) Reverse() map[network.SegmentID][]network.SegmentID {
	rconn := make(map[network.SegmentID][]network.SegmentID, len(s.members))
	for _, i := range s.members {
		var parents []network.SegmentID
		for _, p := range s.net.UpstreamIndexes(i) {
			parents = append(parents, s.net.ID(p))
		}
		rconn[s.net.ID(i)] = parents
	}
	return rconn
}

// memberIndexes returns the dense member indexes in discovery order.
// Read-only view for the decomposer.
func (s *Subnet) memberIndexes() []int32 { return s.members }

// newSubnet rebuilds a subnet from member ids, used when decoding a cached
// decomposition. The first id must be the tailwater.
func newSubnet(net *network.Net, tailwater network.SegmentID, members []network.SegmentID) (*Subnet, error) {
	idx := make([]int32, len(members))
	for k, id := range members {
		i, ok := net.Index(id)
		if !ok {
			return nil, errors.New(errors.ErrCodeSegmentNotFound, "subnet member %d is not in the network", id)
		}
		idx[k] = i
	}
	return &Subnet{tailwater: tailwater, net: net, members: idx}, nil
}

// Partition discovers the tailwater-rooted weakly-connected components of
// the network: for each outlet (self-loop or negative-marker downstream),
// a breadth-first traversal over the upstream adjacency collects every
// reachable segment into that outlet's component.
//
// Returns the components keyed by tailwater id, plus the tailwater ids in
// source-table order for deterministic iteration.
//
// Every member segment must end up in exactly one component; segments left
// unassigned indicate a cycle not rooted at an outlet and are reported as
// a structural error carrying a sample of the offending ids. Double
// assignment cannot arise from a single-valued forward adjacency but is
// checked all the same and reported the same way.
func Partition(net *network.Net) (map[network.SegmentID]*Subnet, []network.SegmentID, error) {
	n := net.Len()
	assigned := make([]int32, n)
	for i := range assigned {
		assigned[i] = -1
	}

	var order []network.SegmentID
	subnets := make(map[network.SegmentID]*Subnet)

	for root := 0; root < n; root++ {
		if !net.IsOutlet(int32(root)) {
			continue
		}
		tw := net.ID(int32(root))

		members := []int32{int32(root)}
		if assigned[root] != -1 {
			return nil, nil, errors.Structural(
				"tailwater already assigned to another component",
				int64(tw))
		}
		assigned[root] = int32(root)

		for head := 0; head < len(members); head++ {
			i := members[head]
			for _, p := range net.UpstreamIndexes(i) {
				if assigned[p] != -1 {
					return nil, nil, errors.Structural(
						"segment assigned to two components",
						int64(net.ID(p)), int64(tw), int64(net.ID(assigned[p])))
				}
				assigned[p] = int32(root)
				members = append(members, p)
			}
		}

		subnets[tw] = &Subnet{tailwater: tw, net: net, members: members}
		order = append(order, tw)
	}

	var unassigned []int64
	for i := 0; i < n; i++ {
		if assigned[i] == -1 {
			unassigned = append(unassigned, int64(net.ID(int32(i))))
			if len(unassigned) == maxReported {
				break
			}
		}
	}
	if len(unassigned) > 0 {
		return nil, nil, errors.Structural(
			"segments unreachable from any outlet (cycle not rooted at an outlet)",
			unassigned...)
	}

	return subnets, order, nil
}
