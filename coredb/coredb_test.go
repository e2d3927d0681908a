// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coredb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensembl-compara/xrefmap/model"
)

func TestMemSpeciesNamesSorted(t *testing.T) {
	m := &Mem{SpeciesIDs: map[string]int{"homo_sapiens": 2, "danio_rerio": 1}}
	names, err := m.SpeciesNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"danio_rerio", "homo_sapiens"}, names)
}

func TestMemGenesReturnsEverythingUnfiltered(t *testing.T) {
	m := &Mem{
		GeneList: []model.CoreObject{
			{Type: model.Gene, InternalID: 1, SeqRegion: "chr1", Start: 100, End: 200},
			{Type: model.Gene, InternalID: 2, SeqRegion: "chr2", Start: 1, End: 50},
		},
	}
	genes, err := m.Genes(context.Background(), &Slice{SeqRegion: "chr1", Start: 1, End: 10})
	require.NoError(t, err)
	assert.Len(t, genes, 2, "Mem.Genes must not apply slice restriction itself")
}

func TestMemTranscriptSequenceMissingIsError(t *testing.T) {
	m := &Mem{TranscriptSeq: map[int]string{1: "ACGT"}}
	seq, err := m.TranscriptSequence(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", seq)

	_, err = m.TranscriptSequence(context.Background(), 2)
	assert.Error(t, err)
}

func TestMemExternalDBIDUnknownSource(t *testing.T) {
	m := &Mem{ExternalDBIDs: map[string]int{"ZFIN_ID": 8}}
	id, ok, err := m.ExternalDBID(context.Background(), "ZFIN_ID")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 8, id)

	_, ok, err = m.ExternalDBID(context.Background(), "NoSuchSource")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemMaxIDsDefaultToZero(t *testing.T) {
	m := &Mem{}
	max, err := m.MaxObjectXrefID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, max)

	max, err = m.MaxXrefID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, max)
}
