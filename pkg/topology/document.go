package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/tailwater/pkg/network"
)

// Document is the canonical serialization format for a decomposition.
// Used for API responses, caching, and export to downstream tooling.
//
// The format is designed for round-trip fidelity: decompose → export →
// re-import produces identical artifacts, including ordering.
type Document struct {
	Segments []SegmentDoc `json:"segments"`
	Networks []NetworkDoc `json:"networks"`
	Warnings []WarningDoc `json:"warnings,omitempty"`
}

// SegmentDoc is one row of the normalized forward adjacency.
type SegmentDoc struct {
	ID         int64 `json:"id"`
	Downstream int64 `json:"downstream"`
}

// NetworkDoc is one independent network with its ordered reaches.
// Members are in traversal discovery order, tailwater first; reaches are
// in topological (leaf-first) order.
type NetworkDoc struct {
	Tailwater int64     `json:"tailwater"`
	Members   []int64   `json:"members"`
	Reaches   [][]int64 `json:"reaches"`
}

// WarningDoc is one normalization ambiguity.
type WarningDoc struct {
	Segment  int64 `json:"segment"`
	Original int64 `json:"original"`
	Resolved int64 `json:"resolved"`
}

// FromDecomposition converts a decomposition to its serialization format.
// Segments follow source-table order via the networks' parent Net when
// available; networks follow tailwater order.
func FromDecomposition(d *Decomposition) Document {
	doc := Document{
		Networks: make([]NetworkDoc, 0, len(d.Tailwaters)),
	}

	// Segment entries follow the networks' shared parent arena when one
	// exists (source-table order); an empty decomposition has none.
	if len(d.Tailwaters) > 0 {
		net := d.Networks[d.Tailwaters[0]].Net()
		for _, id := range net.IDs() {
			to, _ := net.Downstream(id)
			doc.Segments = append(doc.Segments, SegmentDoc{ID: int64(id), Downstream: int64(to)})
		}
	}

	for _, tw := range d.Tailwaters {
		sub := d.Networks[tw]
		nd := NetworkDoc{
			Tailwater: int64(tw),
			Members:   toInt64s(sub.Members()),
			Reaches:   make([][]int64, len(d.Reaches[tw])),
		}
		for i, r := range d.Reaches[tw] {
			nd.Reaches[i] = toInt64s(r)
		}
		doc.Networks = append(doc.Networks, nd)
	}

	for _, w := range d.Warnings {
		doc.Warnings = append(doc.Warnings, WarningDoc{
			Segment:  int64(w.Segment),
			Original: int64(w.Original),
			Resolved: int64(w.Resolved),
		})
	}

	return doc
}

// ToDecomposition rebuilds the in-memory artifacts from a document.
// The adjacency arena is reconstructed from the segment entries, so the
// result is as traversable as a freshly computed decomposition.
func ToDecomposition(doc Document) (*Decomposition, error) {
	ids := make([]network.SegmentID, len(doc.Segments))
	down := make([]network.SegmentID, len(doc.Segments))
	for i, s := range doc.Segments {
		ids[i] = network.SegmentID(s.ID)
		down[i] = network.SegmentID(s.Downstream)
	}
	table, err := network.NewTable(ids, down)
	if err != nil {
		return nil, fmt.Errorf("rebuild table: %w", err)
	}
	net, err := network.Build(table)
	if err != nil {
		return nil, fmt.Errorf("rebuild network: %w", err)
	}

	d := &Decomposition{
		Connections: net.Connections(),
		Networks:    make(map[network.SegmentID]*Subnet, len(doc.Networks)),
		Reaches:     make(map[network.SegmentID][]Reach, len(doc.Networks)),
	}
	for _, nd := range doc.Networks {
		tw := network.SegmentID(nd.Tailwater)
		sub, err := newSubnet(net, tw, toSegmentIDs(nd.Members))
		if err != nil {
			return nil, fmt.Errorf("rebuild network %d: %w", nd.Tailwater, err)
		}
		d.Networks[tw] = sub
		reaches := make([]Reach, len(nd.Reaches))
		for i, r := range nd.Reaches {
			reaches[i] = Reach(toSegmentIDs(r))
		}
		d.Reaches[tw] = reaches
		d.Tailwaters = append(d.Tailwaters, tw)
	}

	for _, w := range doc.Warnings {
		d.Warnings = append(d.Warnings, Warning{
			Segment:  network.SegmentID(w.Segment),
			Original: network.SegmentID(w.Original),
			Resolved: network.SegmentID(w.Resolved),
		})
	}

	return d, nil
}

// MarshalDocument converts a decomposition to indented JSON bytes.
func MarshalDocument(d *Decomposition) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument writes a decomposition as JSON to an io.Writer.
func WriteDocument(d *Decomposition, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromDecomposition(d)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteDocumentFile writes a decomposition to a JSON file.
// The file is created with 0644 permissions.
func WriteDocumentFile(d *Decomposition, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(d, f)
}

// ReadDocument decodes a JSON decomposition from an io.Reader.
func ReadDocument(r io.Reader) (*Decomposition, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToDecomposition(doc)
}

// ReadDocumentFile reads a JSON file and returns the decoded decomposition.
func ReadDocumentFile(path string) (*Decomposition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}

func toInt64s(ids []network.SegmentID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func toSegmentIDs(ids []int64) []network.SegmentID {
	out := make([]network.SegmentID, len(ids))
	for i, id := range ids {
		out[i] = network.SegmentID(id)
	}
	return out
}
