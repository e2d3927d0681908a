// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensembl-compara/xrefmap/config"
	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/emit"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/pipestore"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

func TestSelectDisplayXrefsWritesGeneAndTranscriptDisplay(t *testing.T) {
	store, err := pipestore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	w, err := emit.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	xdb := xrefdb.NewMem(
		[]model.Source{{ID: 1, Name: "Uniprot/SWISSPROT", ExternalDBID: 3}},
		nil, nil, nil, nil, nil, nil,
	)
	core := &coredb.Mem{
		GeneList: []model.CoreObject{{Type: model.Gene, InternalID: 1}},
		TranscriptsByGene: map[int][]model.CoreObject{
			1: {{Type: model.Transcript, InternalID: 10, GeneID: 1, Length: 100}},
		},
	}

	require.NoError(t, store.PutMapping(pipestore.Mapping{
		ObjectType: "Transcript", ObjectID: 10, XrefID: 500, ObjectXrefID: 1, Kind: model.KindAligned,
	}))
	require.NoError(t, store.PutIdentity(pipestore.Identity{ObjectXrefID: 1, SourceID: 1, QueryIdentity: 90}))

	species := config.Species{DisplaySources: []string{"Uniprot/SWISSPROT"}}
	require.NoError(t, selectDisplayXrefs(context.Background(), xdb, core, store, w, species))

	assert.Equal(t, 1, w.Stats().TranscriptDisplays)
	assert.Equal(t, 1, w.Stats().GeneDisplays)
}

func TestSelectDisplayXrefsNoCandidatesWritesNothing(t *testing.T) {
	store, err := pipestore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	w, err := emit.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	xdb := xrefdb.NewMem(nil, nil, nil, nil, nil, nil, nil)
	core := &coredb.Mem{
		GeneList: []model.CoreObject{{Type: model.Gene, InternalID: 1}},
		TranscriptsByGene: map[int][]model.CoreObject{
			1: {{Type: model.Transcript, InternalID: 10, GeneID: 1}},
		},
	}

	species := config.Species{}
	require.NoError(t, selectDisplayXrefs(context.Background(), xdb, core, store, w, species))

	assert.Equal(t, 0, w.Stats().TranscriptDisplays)
	assert.Equal(t, 0, w.Stats().GeneDisplays)
}
