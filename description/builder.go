// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package description

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/emit"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/pipestore"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// Builder assembles and writes one gene_description row per gene.
type Builder struct {
	xrefs      xrefdb.Store
	core       coredb.Store
	index      *pipestore.Store
	filters    []*regexp.Regexp
	sourceRank []string

	sourceNames map[int]string
}

// New builds a Builder, pre-loading source names for the same reason
// display.New does.
func New(ctx context.Context, xrefs xrefdb.Store, core coredb.Store, index *pipestore.Store, filters []*regexp.Regexp, sourceRank []string) (*Builder, error) {
	sources, err := xrefs.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("description: loading sources: %w", err)
	}
	names := make(map[int]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.Name
	}
	return &Builder{xrefs: xrefs, core: core, index: index, filters: filters, sourceRank: sourceRank, sourceNames: names}, nil
}

// BuildForGene gathers description candidates from every xref mapped
// to gene and its transcripts/translations, filters and ranks them,
// and writes the winning row via w. ok is false if no candidate
// survived filtering.
func (b *Builder) BuildForGene(ctx context.Context, w *emit.Writer, gene model.CoreObject) (bool, error) {
	var candidates []Candidate

	collect := func(objectType string, objectID int) error {
		mappings, err := b.index.MappingsForObject(objectType, objectID)
		if err != nil {
			return err
		}
		for _, m := range mappings {
			x, err := b.xrefs.Xref(ctx, m.XrefID)
			if err != nil {
				continue
			}
			if x.Description == "" {
				continue
			}
			ident, ok, err := b.index.Identity(m.ObjectXrefID)
			if err != nil {
				return err
			}
			filtered, keep := Filter(x.Description, b.filters)
			if !keep {
				continue
			}
			qi, ti := 0, 0
			if ok {
				qi, ti = ident.QueryIdentity, ident.TargetIdentity
			}
			candidates = append(candidates, Candidate{
				XrefID:         m.XrefID,
				SourceName:     b.sourceNames[x.SourceID],
				Description:    filtered,
				QueryIdentity:  qi,
				TargetIdentity: ti,
			})
		}
		return nil
	}

	if err := collect(model.Gene.String(), gene.InternalID); err != nil {
		return false, err
	}
	transcripts, err := b.core.TranscriptsOf(ctx, gene.InternalID)
	if err != nil {
		return false, fmt.Errorf("description: fetching transcripts of gene %d: %w", gene.InternalID, err)
	}
	for _, t := range transcripts {
		if err := collect(model.Transcript.String(), t.InternalID); err != nil {
			return false, err
		}
		translation, ok, err := b.core.TranslationOf(ctx, t.InternalID)
		if err != nil {
			return false, fmt.Errorf("description: fetching translation of transcript %d: %w", t.InternalID, err)
		}
		if ok {
			if err := collect(model.Translation.String(), translation.InternalID); err != nil {
				return false, err
			}
		}
	}

	winner, ok := Select(candidates, b.sourceRank)
	if !ok {
		return false, nil
	}

	text := fmt.Sprintf("%s [Source:%s;Acc:%s]", winner.Description, winner.SourceName, accessionFor(ctx, b.xrefs, winner.XrefID))
	if err := w.WriteGeneDescription(gene.InternalID, text); err != nil {
		return false, err
	}
	return true, nil
}

func accessionFor(ctx context.Context, store xrefdb.Store, xrefID int) string {
	x, err := store.Xref(ctx, xrefID)
	if err != nil {
		return ""
	}
	return x.Accession
}
