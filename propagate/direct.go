// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package propagate

import (
	"context"
	"fmt"
	"log"

	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/emit"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/pipestore"
)

// EmitDirect resolves every hand-curated DirectXref to a core object
// and writes its object_xref row.
//
// A CCDS direct xref curated against a transcript is retargeted to
// that transcript's translation; a CCDS transcript with no translation
// is skipped with a warning. A stable id that fails to resolve as
// given is retried with ".1" through ".4" appended before being
// treated as unresolved — a warning, not fatal.
func (p *Propagator) EmitDirect(ctx context.Context, core coredb.Store, directs []model.DirectXref) error {
	for _, d := range directs {
		objType := d.ObjectType
		stableID := d.EnsemblStableID

		x, err := p.store.Xref(ctx, d.XrefID)
		if err != nil {
			return fmt.Errorf("propagate: fetching direct xref %d: %w", d.XrefID, err)
		}
		src, known := p.sources[x.SourceID]

		if known && src.Name == "CCDS" && objType == model.Transcript {
			translationStable, hasTranslation, err := core.TranslationStableIDForTranscript(ctx, stableID)
			if err != nil {
				return fmt.Errorf("propagate: resolving translation for transcript %s: %w", stableID, err)
			}
			if !hasTranslation {
				log.Printf("warning: CCDS xref %s targets transcript %s which has no translation, skipping", x.Accession, stableID)
				continue
			}
			objType = model.Translation
			stableID = translationStable
		}

		internalID, ok, err := core.StableIDToInternal(ctx, objType, stableID)
		if err != nil {
			return fmt.Errorf("propagate: resolving stable id %s: %w", stableID, err)
		}
		if !ok {
			internalID, ok, err = p.resolveWithSuffixFallback(ctx, core, objType, stableID)
			if err != nil {
				return err
			}
		}
		if !ok {
			log.Printf("warning: direct xref %s targets unknown stable id %s, skipping", x.Accession, d.EnsemblStableID)
			continue
		}

		if err := p.emitXref(x, false); err != nil {
			return err
		}
		if !known || !src.Known() {
			continue
		}
		shifted := p.alloc.ShiftXrefID(x.ID)
		objectXrefID := p.alloc.NextObjectXrefID()

		written, err := p.writer.WriteObjectXref(emit.ObjectXrefRow{
			ObjectXrefID: objectXrefID,
			ObjectID:     internalID,
			ObjectType:   objType.String(),
			XrefID:       shifted,
		})
		if err != nil {
			return err
		}
		if !written {
			continue
		}
		if err := p.index.PutMapping(pipestore.Mapping{
			ObjectType:   objType.String(),
			ObjectID:     internalID,
			XrefID:       shifted,
			ObjectXrefID: objectXrefID,
			Kind:         model.KindDirect,
		}); err != nil {
			return err
		}
		if err := p.index.PutMasterLink(d.XrefID, pipestore.ObjectLink{
			ObjectType:   objType.String(),
			ObjectID:     internalID,
			ObjectXrefID: objectXrefID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// resolveWithSuffixFallback retries resolution with ".1" through ".4"
// appended to the unresolved stable id, compensating for legacy UTR
// transcripts whose core stable ids carry a version suffix the curated
// id does not.
func (p *Propagator) resolveWithSuffixFallback(ctx context.Context, core coredb.Store, objType model.ObjectType, stableID string) (int, bool, error) {
	for v := 1; v <= 4; v++ {
		internalID, ok, err := core.StableIDToInternal(ctx, objType, fmt.Sprintf("%s.%d", stableID, v))
		if err != nil {
			return 0, false, err
		}
		if ok {
			return internalID, true, nil
		}
	}
	return 0, false, nil
}
