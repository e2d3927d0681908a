// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensembl-compara/xrefmap/align"
	"github.com/ensembl-compara/xrefmap/config"
	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/scheduler"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// shRunner is a test-only align.Runner that shells out to print a fixed
// line, standing in for a real alignment tool's --ryo output.
type shRunner struct{ script string }

func (r shRunner) BuildCommand() (*exec.Cmd, error) {
	return exec.Command("sh", "-c", r.script), nil
}

// TestRunEndToEndAlignsAndPropagates drives engine.Run over a single
// gene/transcript with one primary DNA xref, a fake alignment method
// standing in for exonerate, and asserts the full pipeline reaches a
// written xref, object_xref and identity row.
func TestRunEndToEndAlignsAndPropagates(t *testing.T) {
	const methodName = "fake-engine-test-method"
	align.Register(align.Method{
		Name:            methodName,
		QueryThreshold:  0,
		TargetThreshold: 0,
		Command: func(query, target string) (align.Runner, error) {
			if strings.Contains(query, "_dna") {
				// xref id 1 aligned to transcript internal id 10,
				// identity=4 over query_len=4/target_len=4 -> qi=ti=100.
				return shRunner{script: `printf 'L:1:10:4:4:4:1:4:1:4:M4:100.0\n'`}, nil
			}
			return shRunner{script: "true"}, nil
		},
	})

	xdb := xrefdb.NewMem(
		[]model.Source{{ID: 1, Name: "TestSource", ExternalDBID: 1}},
		[]model.PrimaryXref{{Xref: model.Xref{ID: 1, SourceID: 1, Accession: "ACC1"}, SequenceType: model.DNA, Sequence: "ACGT"}},
		[]model.Xref{{ID: 1, SourceID: 1, Accession: "ACC1"}},
		nil, nil, nil, nil,
	)
	core := &coredb.Mem{
		GeneList: []model.CoreObject{{Type: model.Gene, InternalID: 1}},
		TranscriptsByGene: map[int][]model.CoreObject{
			1: {{Type: model.Transcript, InternalID: 10, GeneID: 1, Length: 4}},
		},
		TranscriptSeq: map[int]string{10: "ACGT"},
		SpeciesIDs:    map[string]int{},
		SourceIDs:     map[string]int{},
	}

	species := config.Species{
		Name: "test_species",
		Rules: []model.Rule{
			{Method: methodName, Pairs: []model.SourcePattern{{Species: "*", Source: "*"}}},
		},
	}

	sched := scheduler.NewLocal()
	opts := Options{Species: species, WorkDir: t.TempDir()}

	stats, err := Run(context.Background(), xdb, core, sched, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Xrefs)
	assert.Equal(t, 1, stats.ObjectXrefs)
	assert.Equal(t, 1, stats.IdentityXrefs)
}

// An unknown species name in the rule table is fatal, and the error
// enumerates the species names the core database actually knows.
func TestRunUnknownSpeciesEnumeratesValidNames(t *testing.T) {
	xdb := xrefdb.NewMem(nil, nil, nil, nil, nil, nil, nil)
	core := &coredb.Mem{
		SpeciesIDs: map[string]int{"danio_rerio": 1, "homo_sapiens": 2},
		SourceIDs:  map[string]int{"RefSeq_dna": 3},
	}
	species := config.Species{
		Name: "test_species",
		Rules: []model.Rule{
			{Method: "exonerate", Pairs: []model.SourcePattern{{Species: "ghost_species", Source: "RefSeq_dna"}}},
		},
	}

	_, err := Run(context.Background(), xdb, core, scheduler.NewLocal(), Options{Species: species, WorkDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unresolved species "ghost_species"`)
	assert.Contains(t, err.Error(), "valid: danio_rerio, homo_sapiens")
}
