// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensembl-compara/xrefmap/model"
)

func TestMappingRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutMapping(Mapping{ObjectType: "Transcript", ObjectID: 5, XrefID: 101, ObjectXrefID: 1, Kind: model.KindAligned}))
	require.NoError(t, s.PutMapping(Mapping{ObjectType: "Transcript", ObjectID: 5, XrefID: 102, ObjectXrefID: 2, Kind: model.KindDependent}))
	require.NoError(t, s.PutMapping(Mapping{ObjectType: "Transcript", ObjectID: 6, XrefID: 201, ObjectXrefID: 3, Kind: model.KindAligned}))

	got, err := s.MappingsForObject("Transcript", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 101, got[0].XrefID)
	assert.Equal(t, 102, got[1].XrefID)

	got, err = s.MappingsForObject("Transcript", 999)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenReusesExistingIndices(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.PutMapping(Mapping{ObjectType: "Transcript", ObjectID: 7, XrefID: 301, ObjectXrefID: 9, Kind: model.KindAligned}))
	require.NoError(t, s.Close())

	// A second open in the same directory must see the first run's
	// mappings, which is what use_existing_mappings relies on.
	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.MappingsForObject("Transcript", 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 301, got[0].XrefID)
}

func TestIdentityRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutIdentity(Identity{ObjectXrefID: 1, SourceID: 3, QueryIdentity: 80, TargetIdentity: 70}))

	got, ok, err := s.Identity(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 80, got.QueryIdentity)
	assert.Equal(t, 70, got.TargetIdentity)

	_, ok, err = s.Identity(999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMasterLinksRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutMasterLink(7, ObjectLink{ObjectType: "Translation", ObjectID: 42, ObjectXrefID: 1}))
	require.NoError(t, s.PutMasterLink(7, ObjectLink{ObjectType: "Transcript", ObjectID: 5, ObjectXrefID: 2}))

	links, err := s.LinksForXref(7)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	links, err = s.LinksForXref(999)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestPrimaryWrittenIdempotent(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	written, err := s.IsPrimaryWritten(5)
	require.NoError(t, err)
	assert.False(t, written)

	require.NoError(t, s.MarkPrimaryWritten(5))

	written, err = s.IsPrimaryWritten(5)
	require.NoError(t, err)
	assert.True(t, written)
}

// TestBatchBoundaryCrossesCommit exercises the batchSize=200 commit
// granularity, writing enough mappings to force at least one internal
// flush-on-read.
func TestBatchBoundaryCrossesCommit(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < batchSize+50; i++ {
		require.NoError(t, s.PutMapping(Mapping{ObjectType: "Transcript", ObjectID: 1, XrefID: 1000 + i, ObjectXrefID: i, Kind: model.KindAligned}))
	}

	got, err := s.MappingsForObject("Transcript", 1)
	require.NoError(t, err)
	assert.Len(t, got, batchSize+50)
}
