// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/model"
)

func TestBuildResolverResolvesReferencedNamesOnly(t *testing.T) {
	core := &coredb.Mem{
		SpeciesIDs: map[string]int{"danio_rerio": 1, "unused_species": 99},
		SourceIDs:  map[string]int{"RefSeq_peptide": 2},
	}
	rules := []model.Rule{
		{Method: "exonerate", Pairs: []model.SourcePattern{
			{Species: "danio_rerio", Source: "RefSeq_peptide"},
			{Species: "*", Source: "*"},
		}},
	}

	r, err := buildResolver(context.Background(), core, rules)
	require.NoError(t, err)

	id, ok := r.SpeciesID("danio_rerio")
	assert.True(t, ok)
	assert.Equal(t, 1, id)

	_, ok = r.SpeciesID("unused_species")
	assert.False(t, ok, "a species never referenced by a rule must not appear in the resolver")

	id, ok = r.SourceID("RefSeq_peptide")
	assert.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestBuildResolverSkipsWildcards(t *testing.T) {
	core := &coredb.Mem{SpeciesIDs: map[string]int{}, SourceIDs: map[string]int{}}
	rules := []model.Rule{
		{Method: "m", Pairs: []model.SourcePattern{{Species: "*", Source: "*"}}},
	}
	r, err := buildResolver(context.Background(), core, rules)
	require.NoError(t, err)
	assert.Empty(t, r.species)
	assert.Empty(t, r.sources)
}

func TestBuildResolverUnknownNameIsOmittedNotError(t *testing.T) {
	core := &coredb.Mem{SpeciesIDs: map[string]int{}, SourceIDs: map[string]int{}}
	rules := []model.Rule{
		{Method: "m", Pairs: []model.SourcePattern{{Species: "ghost_species", Source: "ghost_source"}}},
	}
	r, err := buildResolver(context.Background(), core, rules)
	require.NoError(t, err)
	_, ok := r.SpeciesID("ghost_species")
	assert.False(t, ok)
}
