// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package description

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFiltersCaseInsensitive(t *testing.T) {
	filters, err := CompileFilters([]string{`fragment`})
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.True(t, filters[0].MatchString("Predicted protein (Fragment)"))
}

func TestFilterDropsWhenEmptiedOut(t *testing.T) {
	filters, err := CompileFilters([]string{`^predicted\s+protein\s*$`})
	require.NoError(t, err)

	out, keep := Filter("Predicted Protein", filters)
	assert.False(t, keep, "a description fully consumed by a filter must be dropped")
	assert.Empty(t, out)
}

func TestFilterStripsMatchButKeepsRemainder(t *testing.T) {
	filters, err := CompileFilters([]string{`\(fragment\)`})
	require.NoError(t, err)
	out, keep := Filter("Hemoglobin subunit alpha (fragment)", filters)
	require.True(t, keep)
	assert.Equal(t, "Hemoglobin subunit alpha", out)
}

func TestSelectRanksBySourceOrder(t *testing.T) {
	sourceRank := []string{"Uniprot/SWISSPROT", "RefSeq_peptide", "RefSeq_dna", "Uniprot/SPTREMBL"}
	candidates := []Candidate{
		{XrefID: 1, SourceName: "Uniprot/SPTREMBL", Description: "putative protein"},
		{XrefID: 2, SourceName: "Uniprot/SWISSPROT", Description: "hemoglobin subunit alpha"},
	}
	winner, ok := Select(candidates, sourceRank)
	require.True(t, ok)
	assert.Equal(t, 2, winner.XrefID, "Uniprot/SWISSPROT must outrank Uniprot/SPTREMBL")
}

func TestSelectUnrankedSourceSortsLast(t *testing.T) {
	sourceRank := []string{"Uniprot/SWISSPROT"}
	candidates := []Candidate{
		{XrefID: 1, SourceName: "SomeOtherSource", Description: "x"},
		{XrefID: 2, SourceName: "Uniprot/SWISSPROT", Description: "y"},
	}
	winner, ok := Select(candidates, sourceRank)
	require.True(t, ok)
	assert.Equal(t, 2, winner.XrefID)
}

func TestSelectSameSourceSwissprotTieBreaksOnQueryIdentity(t *testing.T) {
	sourceRank := []string{"Uniprot/SWISSPROT"}
	candidates := []Candidate{
		{XrefID: 1, SourceName: "Uniprot/SWISSPROT", QueryIdentity: 70, Description: "a"},
		{XrefID: 2, SourceName: "Uniprot/SWISSPROT", QueryIdentity: 95, Description: "b"},
	}
	winner, ok := Select(candidates, sourceRank)
	require.True(t, ok)
	assert.Equal(t, 2, winner.XrefID)
}

func TestSelectSameSourceTieBreaksOnTargetIdentity(t *testing.T) {
	sourceRank := []string{"RefSeq_peptide"}
	candidates := []Candidate{
		{XrefID: 1, SourceName: "RefSeq_peptide", QueryIdentity: 90, TargetIdentity: 60, Description: "a"},
		{XrefID: 2, SourceName: "RefSeq_peptide", QueryIdentity: 90, TargetIdentity: 85, Description: "b"},
	}
	winner, ok := Select(candidates, sourceRank)
	require.True(t, ok)
	assert.Equal(t, 2, winner.XrefID, "equal query identity must fall through to target identity")
}

// TestSelectSameSourceSPTREMBLTieBreaksOnFillerPosition: SPTREMBL ties
// score each description by the highest-positioned filler word it
// contains, so a description stuck at "hypothetical" loses to one that
// at least reaches "protein".
func TestSelectSameSourceSPTREMBLTieBreaksOnFillerPosition(t *testing.T) {
	sourceRank := []string{"Uniprot/SPTREMBL"}
	candidates := []Candidate{
		{XrefID: 1, SourceName: "Uniprot/SPTREMBL", Description: "hypothetical peptide"},
		{XrefID: 2, SourceName: "Uniprot/SPTREMBL", Description: "unknown protein"},
	}
	winner, ok := Select(candidates, sourceRank)
	require.True(t, ok)
	assert.Equal(t, 2, winner.XrefID, "the higher-positioned filler word must win the tie")

	candidates = []Candidate{
		{XrefID: 3, SourceName: "Uniprot/SPTREMBL", Description: "novel fragment"},
		{XrefID: 4, SourceName: "Uniprot/SPTREMBL", Description: "unknown"},
	}
	winner, ok = Select(candidates, sourceRank)
	require.True(t, ok)
	assert.Equal(t, 3, winner.XrefID)
}

// TestSelectConsortiumSourceRanksFirst: the consortium source (e.g.
// ZFIN_ID) heads the rank list, so it beats every other source,
// Swissprot included — the naming authority's description wins.
func TestSelectConsortiumSourceRanksFirst(t *testing.T) {
	sourceRank := []string{"ZFIN_ID", "Uniprot/SWISSPROT", "RefSeq_peptide", "RefSeq_dna", "Uniprot/SPTREMBL"}

	winner, ok := Select([]Candidate{
		{XrefID: 1, SourceName: "SomeUnrankedSource", Description: "x"},
		{XrefID: 2, SourceName: "ZFIN_ID", Description: "zebrafish gene"},
	}, sourceRank)
	require.True(t, ok)
	assert.Equal(t, 2, winner.XrefID, "a listed consortium source must outrank a source absent from the list")

	winner, ok = Select([]Candidate{
		{XrefID: 3, SourceName: "ZFIN_ID", Description: "zebrafish gene"},
		{XrefID: 4, SourceName: "Uniprot/SWISSPROT", Description: "hemoglobin subunit alpha"},
	}, sourceRank)
	require.True(t, ok)
	assert.Equal(t, 3, winner.XrefID, "the consortium source must outrank Uniprot/SWISSPROT")
}

func TestSelectEmptyCandidatesNotFound(t *testing.T) {
	_, ok := Select(nil, []string{"x"})
	assert.False(t, ok)
}
