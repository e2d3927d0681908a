// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"fmt"

	"github.com/ensembl-compara/xrefmap/config"
	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/description"
	"github.com/ensembl-compara/xrefmap/emit"
	"github.com/ensembl-compara/xrefmap/pipestore"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// buildDescriptions runs the description builder over every gene in
// scope, writing the winning gene_description row chosen from the
// gene's own xrefs plus every transcript and translation hanging off
// it.
func buildDescriptions(ctx context.Context, xrefs xrefdb.Store, core coredb.Store, pstore *pipestore.Store, writer *emit.Writer, species config.Species) error {
	filters, err := description.CompileFilters(species.DescriptionFilters)
	if err != nil {
		return fmt.Errorf("engine: compiling description filters: %w", err)
	}
	// The source rank list is DescriptionSourceOrder with the species'
	// consortium source, when there is one, prepended as its
	// highest-ranked member: the naming authority beats even a
	// Swissprot description.
	sourceOrder := append([]string(nil), species.DescriptionSourceOrder...)
	if species.Consortium != "" {
		sourceOrder = append([]string{species.Consortium}, sourceOrder...)
	}
	builder, err := description.New(ctx, xrefs, core, pstore, filters, sourceOrder)
	if err != nil {
		return err
	}
	genes, err := core.Genes(ctx, nil)
	if err != nil {
		return fmt.Errorf("engine: listing genes: %w", err)
	}
	for _, gene := range genes {
		if _, err := builder.BuildForGene(ctx, writer, gene); err != nil {
			return fmt.Errorf("engine: building description for gene %d: %w", gene.InternalID, err)
		}
	}
	return nil
}
