// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// RecordPropagationEdge notes one master→dependent xref edge, used
// only to build the optional xref_graph.dot debug artifact. It is
// cheap to call unconditionally; WriteGraph is what actually costs
// anything.
func (w *Writer) RecordPropagationEdge(masterXrefID, dependentXrefID int) {
	w.propagationEdges = append(w.propagationEdges, propagationEdge{masterXrefID, dependentXrefID})
}

type propagationEdge struct {
	master, dependent int
}

// WriteGraph writes every recorded propagation edge as a DOT graph at
// path, the same graph/encoding/dot marshaling cmd/cmpint's dotOut uses
// for its discordance graphs, here applied to primary→dependent xref
// edges instead of mismatched genomic intervals.
func (w *Writer) WriteGraph(path string) error {
	g := simple.NewDirectedGraph()
	seen := make(map[int]graph.Node)
	nodeFor := func(id int) graph.Node {
		if n, ok := seen[id]; ok {
			return n
		}
		n := xrefNode(id)
		g.AddNode(n)
		seen[id] = n
		return n
	}
	for _, e := range w.propagationEdges {
		g.SetEdge(g.NewEdge(nodeFor(e.master), nodeFor(e.dependent)))
	}
	b, err := dot.Marshal(g, "xrefs", "", "\t")
	if err != nil {
		return fmt.Errorf("emit: marshaling propagation graph: %w", err)
	}
	if err := os.WriteFile(path, b, 0o664); err != nil {
		return fmt.Errorf("emit: writing %s: %w", path, err)
	}
	return nil
}

type xrefNode int

func (n xrefNode) ID() int64     { return int64(n) }
func (n xrefNode) DOTID() string { return fmt.Sprintf("xref%d", int(n)) }
