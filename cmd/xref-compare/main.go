// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The xref-compare command compares the transcript_display_xref.txt and
// gene_display_xref.txt produced by two separate xrefmap runs (for
// example, before and after a config change) and reports how many
// objects agree, how many are missing a display xref in one run but not
// the other, and how many disagree on which xref was chosen. It is
// adapted from cmd/cmpint's interval-agreement report, generalized from
// "bases of genomic overlap" to "objects with a resolved display xref".
//
// If a -dot prefix is given, a DOT graph of the mismatches is written,
// with one node per (run, xref id) and an edge for every object whose
// two runs disagree — the same discordance-graph idiom as cmpint's
// dotOut/nameGraph.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

func main() {
	aFile := flag.String("a", "", "specify run a's display_xref.txt (required)")
	bFile := flag.String("b", "", "specify run b's display_xref.txt (required)")
	out := flag.String("dot", "", "specify prefix for a DOT file describing disagreements")
	none := flag.String("none", "none", "specify label for 'no display xref chosen'")
	flag.Parse()

	if *aFile == "" || *bFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	a, err := readDisplay(*aFile)
	if err != nil {
		log.Fatal(err)
	}
	b, err := readDisplay(*bFile)
	if err != nil {
		log.Fatal(err)
	}

	objects := make(map[int]bool, len(a)+len(b))
	for id := range a {
		objects[id] = true
	}
	for id := range b {
		objects[id] = true
	}

	var agree, aMissing, bMissing, mismatch int
	mismatches := make(map[pair]int)
	for id := range objects {
		av, aok := a[id]
		bv, bok := b[id]
		switch {
		case aok && bok && av == bv:
			agree++
		case aok && !bok:
			bMissing++
		case !aok && bok:
			aMissing++
		case aok && bok:
			mismatch++
			mismatches[pair{a: av, b: bv}]++
		}
	}

	m, err := json.Marshal(report{
		Agree:    agree,
		AMissing: aMissing,
		BMissing: bMissing,
		Mismatch: mismatch,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s\n", m)

	if *out != "" {
		if err := dotOut(*out+".dot", *aFile, *bFile, mismatches, *none); err != nil {
			log.Fatal(err)
		}
	}
}

type report struct {
	Agree    int `json:"agree"`
	AMissing int `json:"a-missing"`
	BMissing int `json:"b-missing"`
	Mismatch int `json:"mismatch"`
}

type pair struct {
	a, b int
}

// readDisplay parses a display_xref.txt file (xref_id<TAB>object_id per
// line, emit.Writer's WriteTranscriptDisplay/WriteGeneDisplay format)
// into a map keyed by object id.
func readDisplay(path string) (map[int]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[int]int)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) != 2 {
			continue
		}
		xrefID, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("xref-compare: parsing %s: %w", path, err)
		}
		objectID, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("xref-compare: parsing %s: %w", path, err)
		}
		out[objectID] = xrefID
	}
	return out, sc.Err()
}

func dotOut(path, aFile, bFile string, edges map[pair]int, none string) error {
	g := newNameGraph(none)
	for p, w := range edges {
		e := edge{
			f: g.nodeFor(aFile, p.a),
			t: g.nodeFor(bFile, p.b),
			w: float64(w),
		}
		g.SetWeightedEdge(e)
	}
	b, err := dot.Marshal(g, "discord", "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o664)
}

type nameGraph struct {
	*simple.WeightedUndirectedGraph
	idFor map[string]int64
	none  string
}

func newNameGraph(none string) nameGraph {
	return nameGraph{
		WeightedUndirectedGraph: simple.NewWeightedUndirectedGraph(0, 0),
		idFor:                   make(map[string]int64),
		none:                    none,
	}
}

func (g nameGraph) nodeFor(file string, xrefID int) graph.Node {
	s := g.none
	if xrefID != 0 {
		s = strconv.Itoa(xrefID)
	}
	s = file + ":" + s
	id, ok := g.idFor[s]
	if ok {
		return g.Node(id)
	}
	id = g.WeightedUndirectedGraph.NewNode().ID()
	g.idFor[s] = id
	n := node{id: id, name: s}
	g.AddNode(n)
	return n
}

type node struct {
	id   int64
	name string
}

func (n node) ID() int64     { return n.id }
func (n node) DOTID() string { return n.name }

type edge struct {
	f, t graph.Node
	w    float64
}

func (e edge) From() graph.Node         { return e.f }
func (e edge) To() graph.Node           { return e.t }
func (e edge) ReversedEdge() graph.Edge { return edge{f: e.t, t: e.f, w: e.w} }
func (e edge) Weight() float64          { return e.w }
func (e edge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "weight", Value: fmt.Sprint(e.w)}}
}
