// Package distrib exchanges finalized call graphs between processes
// through Redis, so a multi-process run can be merged into one report.
package distrib

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/storage"
)

// Bump when Payload changes shape; decoders reject other versions.
const schemaVersion uint16 = 1

// Payload is the wire form of one process's graph for one kind.
type Payload struct {
	Schema  uint16
	Kind    uint8
	Process string
	Nodes   []storage.ExportedNode
}

// Encode flattens a graph into a msgpack payload.
func Encode(kind component.Kind, process string, g *storage.Graph) ([]byte, error) {
	p := Payload{
		Schema:  schemaVersion,
		Kind:    uint8(kind),
		Process: process,
		Nodes:   g.Export(),
	}
	b, err := msgpack.Marshal(&p)
	if err != nil {
		return nil, fmt.Errorf("distrib: encode graph: %w", err)
	}
	return b, nil
}

// Decode parses a payload and rebuilds its graph, rejecting unknown schema
// versions and kind mismatches.
func Decode(data []byte, want component.Kind) (*Payload, *storage.Graph, error) {
	var p Payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, nil, fmt.Errorf("distrib: decode payload: %w", err)
	}
	if p.Schema != schemaVersion {
		return nil, nil, fmt.Errorf("distrib: unsupported schema %d (want %d)", p.Schema, schemaVersion)
	}
	if component.Kind(p.Kind) != want {
		return nil, nil, fmt.Errorf("distrib: payload kind %s, want %s: %w",
			component.Kind(p.Kind), want, storage.ErrKindMismatch)
	}
	g, err := storage.Import(want, p.Nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("distrib: rebuild graph: %w", err)
	}
	return &p, g, nil
}
