// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"fmt"

	"github.com/ensembl-compara/xrefmap/config"
	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/display"
	"github.com/ensembl-compara/xrefmap/emit"
	"github.com/ensembl-compara/xrefmap/pipestore"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// selectDisplayXrefs runs display-xref selection over every gene in
// scope: resolve each transcript's display xref, reconcile against its
// translation, then resolve the gene's own display xref from its
// transcripts' choices.
func selectDisplayXrefs(ctx context.Context, xrefs xrefdb.Store, core coredb.Store, pstore *pipestore.Store, writer *emit.Writer, species config.Species) error {
	sel, err := display.New(ctx, xrefs, core, pstore, display.NewPriorityIndexer(species.DisplaySources))
	if err != nil {
		return err
	}
	genes, err := core.Genes(ctx, nil)
	if err != nil {
		return fmt.Errorf("engine: listing genes: %w", err)
	}
	for _, gene := range genes {
		transcripts, err := core.TranscriptsOf(ctx, gene.InternalID)
		if err != nil {
			return fmt.Errorf("engine: fetching transcripts of gene %d: %w", gene.InternalID, err)
		}
		choices := make([]display.TranscriptChoice, 0, len(transcripts))
		for _, t := range transcripts {
			choice, err := sel.SelectTranscript(ctx, t)
			if err != nil {
				return fmt.Errorf("engine: selecting display xref for transcript %d: %w", t.InternalID, err)
			}
			if choice.Chosen {
				if err := writer.WriteTranscriptDisplay(choice.TranscriptID, choice.Candidate.XrefID); err != nil {
					return err
				}
			}
			choices = append(choices, choice)
		}
		if best, ok := display.SelectGene(choices); ok {
			if err := writer.WriteGeneDisplay(gene.InternalID, best.Candidate.XrefID); err != nil {
				return err
			}
		}
	}
	return nil
}
