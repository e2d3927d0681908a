// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dumper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/ruleengine"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

func TestDumpXrefsWrapsAtSixtyColumns(t *testing.T) {
	dir := t.TempDir()
	seq := strings.Repeat("A", 130)
	store := xrefdb.NewMem(nil, []model.PrimaryXref{
		{Xref: model.Xref{ID: 1}, SequenceType: model.DNA, Sequence: seq},
	}, nil, nil, nil, nil, nil)

	preds := []ruleengine.Predicate{
		{Method: "exonerate_dna", Kind: model.DNA, SQL: ""},
		{Method: "exonerate_dna", Kind: model.Peptide, SQL: ""},
	}
	files, err := DumpXrefs(context.Background(), store, preds, dir, false)
	require.NoError(t, err)
	require.Len(t, files, 1)

	b, err := os.ReadFile(files[0].DNA)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	require.Equal(t, []string{">1", strings.Repeat("A", 60), strings.Repeat("A", 60), strings.Repeat("A", 10)}, lines)
}

func TestDumpXrefsDumpcheckSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	store := xrefdb.NewMem(nil, []model.PrimaryXref{
		{Xref: model.Xref{ID: 1}, SequenceType: model.DNA, Sequence: "ACGT"},
	}, nil, nil, nil, nil, nil)
	preds := []ruleengine.Predicate{
		{Method: "m", Kind: model.DNA, SQL: ""},
		{Method: "m", Kind: model.Peptide, SQL: ""},
	}

	_, err := DumpXrefs(context.Background(), store, preds, dir, false)
	require.NoError(t, err)

	dnaPath := filepath.Join(dir, "xref_0_dna.fasta")
	before, err := os.ReadFile(dnaPath)
	require.NoError(t, err)

	// Mutate the backing store; dumpcheck must still skip regenerating
	// the FASTA since it already exists and is non-empty.
	store.PrimaryList[0].Sequence = "TTTT"
	_, err = DumpXrefs(context.Background(), store, preds, dir, true)
	require.NoError(t, err)

	after, err := os.ReadFile(dnaPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "dumpcheck must skip a rule whose FASTA pair already exists")
}

func TestDumpXrefsDumpcheckRedumpsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := xrefdb.NewMem(nil, []model.PrimaryXref{
		{Xref: model.Xref{ID: 1}, SequenceType: model.DNA, Sequence: "ACGT"},
	}, nil, nil, nil, nil, nil)
	preds := []ruleengine.Predicate{
		{Method: "m", Kind: model.DNA, SQL: ""},
		{Method: "m", Kind: model.Peptide, SQL: ""},
	}

	dnaPath := filepath.Join(dir, "xref_0_dna.fasta")
	require.NoError(t, os.WriteFile(dnaPath, []byte("garbage, not a FASTA record\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xref_0_peptide.fasta"), nil, 0o644))

	_, err := DumpXrefs(context.Background(), store, preds, dir, true)
	require.NoError(t, err)

	b, err := os.ReadFile(dnaPath)
	require.NoError(t, err)
	assert.Equal(t, ">1\nACGT\n", string(b), "a file that does not parse as FASTA must be regenerated")
}

func TestDumpCoreWritesTranscriptAndTranslationFASTA(t *testing.T) {
	dir := t.TempDir()
	store := &coredb.Mem{
		GeneList: []model.CoreObject{{Type: model.Gene, InternalID: 1}},
		TranscriptsByGene: map[int][]model.CoreObject{
			1: {{Type: model.Transcript, InternalID: 10, GeneID: 1}},
		},
		TranslationByTranscript: map[int]model.CoreObject{
			10: {Type: model.Translation, InternalID: 100, TranscriptID: 10},
		},
		TranscriptSeq:  map[int]string{10: "ACGTACGTACGT"},
		TranslationSeq: map[int]string{100: "MKVL"},
	}

	cf, err := DumpCore(context.Background(), store, "danio_rerio", dir, nil, 0, false)
	require.NoError(t, err)

	dna, err := os.ReadFile(cf.DNA)
	require.NoError(t, err)
	assert.Contains(t, string(dna), ">10")
	assert.Contains(t, string(dna), "ACGTACGTACGT")

	prot, err := os.ReadFile(cf.Protein)
	require.NoError(t, err)
	assert.Contains(t, string(prot), ">100")

	_, err = os.Stat(cf.DNA + ".fai")
	assert.NoError(t, err, "a .fai index must be written alongside the DNA dump")
}

func TestDumpCoreMaxdumpCapsTranscripts(t *testing.T) {
	dir := t.TempDir()
	store := &coredb.Mem{
		GeneList: []model.CoreObject{{Type: model.Gene, InternalID: 1}},
		TranscriptsByGene: map[int][]model.CoreObject{
			1: {
				{Type: model.Transcript, InternalID: 10, GeneID: 1},
				{Type: model.Transcript, InternalID: 11, GeneID: 1},
			},
		},
		TranscriptSeq: map[int]string{10: "ACGT", 11: "TTTT"},
	}

	cf, err := DumpCore(context.Background(), store, "danio_rerio", dir, nil, 1, false)
	require.NoError(t, err)

	dna, err := os.ReadFile(cf.DNA)
	require.NoError(t, err)
	assert.Contains(t, string(dna), ">10")
	assert.NotContains(t, string(dna), ">11", "maxdump=1 must stop after the first transcript")
}

func TestFilterBySliceKeepsOnlyOverlapping(t *testing.T) {
	genes := []model.CoreObject{
		{InternalID: 1, SeqRegion: "chr1", Start: 100, End: 200},
		{InternalID: 2, SeqRegion: "chr1", Start: 500, End: 600},
		{InternalID: 3, SeqRegion: "chr2", Start: 100, End: 200},
	}
	out := filterBySlice(genes, coredb.Slice{SeqRegion: "chr1", Start: 150, End: 550})
	var ids []int
	for _, g := range out {
		ids = append(ids, g.InternalID)
	}
	assert.ElementsMatch(t, []int{1, 2}, ids)
}
