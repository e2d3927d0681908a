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

func TestBuildDescriptionsWritesWinningGeneDescription(t *testing.T) {
	store, err := pipestore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	w, err := emit.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	xdb := xrefdb.NewMem(
		[]model.Source{{ID: 1, Name: "Uniprot/SWISSPROT"}},
		nil,
		[]model.Xref{{ID: 1, SourceID: 1, Description: "a fine kinase"}},
		nil, nil, nil, nil,
	)
	core := &coredb.Mem{GeneList: []model.CoreObject{{Type: model.Gene, InternalID: 1}}}

	require.NoError(t, store.PutMapping(pipestore.Mapping{
		ObjectType: "Gene", ObjectID: 1, XrefID: 1, ObjectXrefID: 1, Kind: model.KindAligned,
	}))

	species := config.Species{DescriptionSourceOrder: []string{"Uniprot/SWISSPROT"}}
	require.NoError(t, buildDescriptions(context.Background(), xdb, core, store, w, species))

	assert.Equal(t, 1, w.Stats().GeneDescriptions)
}
