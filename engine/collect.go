// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"fmt"

	"github.com/ensembl-compara/xrefmap/config"
	"github.com/ensembl-compara/xrefmap/pipestore"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// collectAllXrefIDs gathers every xref id known to the store,
// across every source, so propagate's orphan and synonym passes can
// walk the full id space rather than only the ids that survived
// alignment.
func collectAllXrefIDs(ctx context.Context, xrefs xrefdb.Store, species config.Species) ([]int, error) {
	sources, err := xrefs.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: listing sources: %w", err)
	}
	var all []int
	for _, src := range sources {
		ids, err := xrefs.AllXrefIDsForSource(ctx, src.ID)
		if err != nil {
			return nil, fmt.Errorf("engine: listing xref ids for source %d: %w", src.ID, err)
		}
		all = append(all, ids...)
	}
	return all, nil
}

// masterLinks partitions allIDs into the subset that already reached a
// core object (a "master") and the object links each one fans out to,
// the input PropagateDependents needs to walk the dependent-xref
// closure.
func masterLinks(pstore *pipestore.Store, allIDs []int) ([]int, map[int][]pipestore.ObjectLink, error) {
	var masterIDs []int
	objects := make(map[int][]pipestore.ObjectLink)
	for _, id := range allIDs {
		links, err := pstore.LinksForXref(id)
		if err != nil {
			return nil, nil, fmt.Errorf("engine: fetching links for xref %d: %w", id, err)
		}
		if len(links) == 0 {
			continue
		}
		masterIDs = append(masterIDs, id)
		objects[id] = links
	}
	return masterIDs, objects, nil
}
