// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package display picks one "best" xref for each transcript and gene
// from the mappings propagate produced, in three phases: per-object
// best, transcript/translation reconciliation, then gene-level
// selection from its transcripts' choices.
package display

import (
	"context"
	"fmt"
	"log"

	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/pipestore"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// PriorityIndexer ranks a source name: lower is better, -1 means the
// source is not in the species' display_sources list and disqualifies
// any candidate carrying it.
type PriorityIndexer func(sourceName string) int

// NewPriorityIndexer builds a PriorityIndexer from an ordered
// display_sources list (config.Species.DisplaySources).
func NewPriorityIndexer(displaySources []string) PriorityIndexer {
	rank := make(map[string]int, len(displaySources))
	for i, s := range displaySources {
		rank[s] = i
	}
	return func(name string) int {
		if i, ok := rank[name]; ok {
			return i
		}
		return -1
	}
}

// Candidate is one object_xref considered for display-xref selection.
type Candidate struct {
	ObjectXrefID  int
	XrefID        int
	SourceName    string
	PriorityIndex int
	QueryIdentity int
}

// Selector resolves display-xref candidates against the working
// indices propagation built and the core database.
type Selector struct {
	xrefs    xrefdb.Store
	core     coredb.Store
	index    *pipestore.Store
	priority PriorityIndexer

	sourceNames map[int]string // source id -> name, loaded once
}

// New builds a Selector, pre-loading source names so candidate
// construction never needs a per-xref round trip for its source.
func New(ctx context.Context, xrefs xrefdb.Store, core coredb.Store, index *pipestore.Store, priority PriorityIndexer) (*Selector, error) {
	sources, err := xrefs.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("display: loading sources: %w", err)
	}
	names := make(map[int]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.Name
	}
	return &Selector{xrefs: xrefs, core: core, index: index, priority: priority, sourceNames: names}, nil
}

// candidatesFor builds the Candidate list for one core object from its
// pipestore mappings, skipping anything whose source carries no
// priority.
func (s *Selector) candidatesFor(objectType string, objectID int) ([]Candidate, error) {
	mappings, err := s.index.MappingsForObject(objectType, objectID)
	if err != nil {
		return nil, fmt.Errorf("display: loading mappings for %s %d: %w", objectType, objectID, err)
	}
	var out []Candidate
	for _, m := range mappings {
		ident, ok, err := s.index.Identity(m.ObjectXrefID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		name, ok := s.sourceNames[ident.SourceID]
		if !ok {
			log.Printf("warning: object_xref %d carries unknown source id %d, disqualifying xref %d", m.ObjectXrefID, ident.SourceID, m.XrefID)
			continue
		}
		pi := s.priority(name)
		if pi < 0 {
			continue
		}
		out = append(out, Candidate{
			ObjectXrefID:  m.ObjectXrefID,
			XrefID:        m.XrefID,
			SourceName:    name,
			PriorityIndex: pi,
			QueryIdentity: ident.QueryIdentity,
		})
	}
	return out, nil
}

// Best picks the single best candidate by lowest priority index,
// breaking ties by highest query identity. ok is
// false if every candidate was disqualified or there were none.
func Best(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range candidates {
		if !found || better(c, best) {
			best = c
			found = true
		}
	}
	return best, found
}

func better(a, b Candidate) bool {
	if a.PriorityIndex != b.PriorityIndex {
		return a.PriorityIndex < b.PriorityIndex
	}
	return a.QueryIdentity > b.QueryIdentity
}

// TranscriptChoice is a transcript's resolved display-xref choice,
// threaded through to gene-level selection.
type TranscriptChoice struct {
	TranscriptID int
	Length       int
	Candidate    Candidate
	Chosen       bool
}

// SelectTranscript resolves one transcript's display xref: its own
// best candidate, reconciled against its translation's best candidate
// via the translation-override rule.
func (s *Selector) SelectTranscript(ctx context.Context, transcript model.CoreObject) (TranscriptChoice, error) {
	transcriptCands, err := s.candidatesFor(model.Transcript.String(), transcript.InternalID)
	if err != nil {
		return TranscriptChoice{}, err
	}
	best, ok := Best(transcriptCands)
	choice := TranscriptChoice{TranscriptID: transcript.InternalID, Length: transcript.Length, Candidate: best, Chosen: ok}

	translation, hasTranslation, err := s.core.TranslationOf(ctx, transcript.InternalID)
	if err != nil {
		return TranscriptChoice{}, err
	}
	if !hasTranslation {
		return choice, nil
	}

	translationCands, err := s.candidatesFor(model.Translation.String(), translation.InternalID)
	if err != nil {
		return TranscriptChoice{}, err
	}
	translationBest, translationOK := Best(translationCands)
	if !translationOK {
		return choice, nil
	}

	if !ok || (translationBest.PriorityIndex < best.PriorityIndex && translationBest.QueryIdentity > best.QueryIdentity) {
		choice.Candidate = translationBest
		choice.Chosen = true
	}
	return choice, nil
}

// SelectGene resolves a gene's display xref from its transcripts'
// resolved choices: the lowest priority index wins; ties are broken by
// the longest transcript.
func SelectGene(choices []TranscriptChoice) (TranscriptChoice, bool) {
	var best TranscriptChoice
	found := false
	for _, c := range choices {
		if !c.Chosen {
			continue
		}
		if !found || betterGeneChoice(c, best) {
			best = c
			found = true
		}
	}
	return best, found
}

func betterGeneChoice(a, b TranscriptChoice) bool {
	if a.Candidate.PriorityIndex != b.Candidate.PriorityIndex {
		return a.Candidate.PriorityIndex < b.Candidate.PriorityIndex
	}
	return a.Length > b.Length
}
