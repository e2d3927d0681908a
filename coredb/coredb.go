// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coredb defines the read boundary onto the core genome
// annotation database (genes, transcripts, translations). As with
// xrefdb, how SQL against this database is executed is out of scope
// — callers only see the Store interface.
package coredb

import (
	"context"
	"fmt"
	"sort"

	"github.com/ensembl-compara/xrefmap/model"
)

// Slice restricts a core dump to one genomic region.
type Slice struct {
	SeqRegion string
	Start     int // 1-based inclusive
	End       int // 1-based inclusive
}

// Store is everything the pipeline needs to read from the core
// database.
type Store interface {
	// Genes returns every gene, optionally restricted to those
	// overlapping slice (nil means the whole genome).
	Genes(ctx context.Context, slice *Slice) ([]model.CoreObject, error)
	// TranscriptsOf returns the transcripts belonging to a gene.
	TranscriptsOf(ctx context.Context, geneID int) ([]model.CoreObject, error)
	// TranslationOf returns the translation belonging to a transcript,
	// if any.
	TranslationOf(ctx context.Context, transcriptID int) (model.CoreObject, bool, error)
	// TranscriptSequence returns the spliced cDNA for a transcript.
	TranscriptSequence(ctx context.Context, transcriptID int) (string, error)
	// TranslationSequence returns the peptide for a translation.
	TranslationSequence(ctx context.Context, translationID int) (string, error)
	// StableIDToInternal resolves a stable id to an internal id for the
	// given object type.
	StableIDToInternal(ctx context.Context, objType model.ObjectType, stableID string) (int, bool, error)
	// TranslationStableIDForTranscript maps a transcript stable id to
	// its translation's stable id, used for CCDS retargeting.
	TranslationStableIDForTranscript(ctx context.Context, transcriptStableID string) (string, bool, error)
	// MaxObjectXrefID and MaxXrefID seed the id allocator.
	MaxObjectXrefID(ctx context.Context) (int, error)
	MaxXrefID(ctx context.Context) (int, error)
	// SpeciesID resolves a species name to its numeric id.
	SpeciesID(ctx context.Context, name string) (int, bool, error)
	// SpeciesNames lists every species name known to the target, used
	// to enumerate the valid names in a configuration error.
	SpeciesNames(ctx context.Context) ([]string, error)
	// SourceID resolves a source name to its numeric id.
	SourceID(ctx context.Context, name string) (int, bool, error)
	// ExternalDBID resolves a source name to its target external_db id;
	// ok is false if the source is unknown to the target.
	ExternalDBID(ctx context.Context, sourceName string) (id int, ok bool, err error)
}

// Mem is an in-memory Store built from fixtures, used by tests and by
// small or pre-extracted runs.
type Mem struct {
	GeneList        []model.CoreObject
	TranscriptsByGene map[int][]model.CoreObject
	TranslationByTranscript map[int]model.CoreObject
	TranscriptSeq   map[int]string
	TranslationSeq  map[int]string
	StableToInternal map[model.ObjectType]map[string]int
	TranscriptToTranslationStable map[string]string
	MaxOXID         int
	MaxXID          int
	SpeciesIDs      map[string]int
	SourceIDs       map[string]int
	ExternalDBIDs   map[string]int
}

// Genes returns every gene when slice is nil. Slice-restriction is
// deliberately not duplicated here: dumper.filterBySlice performs the
// actual overlap test (via an interval tree) over whatever Genes
// returns, so every Store implementation — Mem included — can return
// its full gene list unfiltered and let the one overlap test in
// dumper own slice semantics.
func (m *Mem) Genes(ctx context.Context, slice *Slice) ([]model.CoreObject, error) {
	return m.GeneList, nil
}

func (m *Mem) TranscriptsOf(ctx context.Context, geneID int) ([]model.CoreObject, error) {
	return m.TranscriptsByGene[geneID], nil
}

func (m *Mem) TranslationOf(ctx context.Context, transcriptID int) (model.CoreObject, bool, error) {
	t, ok := m.TranslationByTranscript[transcriptID]
	return t, ok, nil
}

func (m *Mem) TranscriptSequence(ctx context.Context, transcriptID int) (string, error) {
	s, ok := m.TranscriptSeq[transcriptID]
	if !ok {
		return "", fmt.Errorf("coredb: no sequence for transcript %d", transcriptID)
	}
	return s, nil
}

func (m *Mem) TranslationSequence(ctx context.Context, translationID int) (string, error) {
	s, ok := m.TranslationSeq[translationID]
	if !ok {
		return "", fmt.Errorf("coredb: no sequence for translation %d", translationID)
	}
	return s, nil
}

func (m *Mem) StableIDToInternal(ctx context.Context, objType model.ObjectType, stableID string) (int, bool, error) {
	tbl, ok := m.StableToInternal[objType]
	if !ok {
		return 0, false, nil
	}
	id, ok := tbl[stableID]
	return id, ok, nil
}

func (m *Mem) TranslationStableIDForTranscript(ctx context.Context, transcriptStableID string) (string, bool, error) {
	s, ok := m.TranscriptToTranslationStable[transcriptStableID]
	return s, ok, nil
}

func (m *Mem) MaxObjectXrefID(ctx context.Context) (int, error) { return m.MaxOXID, nil }
func (m *Mem) MaxXrefID(ctx context.Context) (int, error)       { return m.MaxXID, nil }

func (m *Mem) SpeciesID(ctx context.Context, name string) (int, bool, error) {
	id, ok := m.SpeciesIDs[name]
	return id, ok, nil
}

func (m *Mem) SpeciesNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.SpeciesIDs))
	for n := range m.SpeciesIDs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Mem) SourceID(ctx context.Context, name string) (int, bool, error) {
	id, ok := m.SourceIDs[name]
	return id, ok, nil
}

func (m *Mem) ExternalDBID(ctx context.Context, sourceName string) (int, bool, error) {
	id, ok := m.ExternalDBIDs[sourceName]
	return id, ok, nil
}
