// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ensembl-compara/xrefmap/emit"
	"github.com/ensembl-compara/xrefmap/idalloc"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/pipestore"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// Target names the core object type a rule's alignment maps onto,
// decided from the dumped core FASTA's file name.
type Target struct {
	ObjectType model.ObjectType
}

// ObjectTypeForCoreFile returns the Target object type implied by a
// dumped core FASTA's suffix.
func ObjectTypeForCoreFile(kind model.SeqKind) model.ObjectType {
	if kind == model.Peptide {
		return model.Translation
	}
	return model.Transcript
}

// Ingest turns threshold-passing alignment records into object_xref
// and identity_xref rows, allocating a fresh object_xref_id for each
// and recording the (object, xref) mapping and identity scores in
// store for the display-xref selector and description builder to
// consume later in the same run.
//
// A Record's QueryAccVer is the primary xref's numeric id (the FASTA
// header dumper.DumpXrefs wrote); TargetAccVer is the core object's
// internal id (the FASTA header dumper.DumpCore wrote).
func Ingest(ctx context.Context, xrefs xrefdb.Store, w *emit.Writer, store *pipestore.Store, alloc *idalloc.Allocator, target Target, recs []Record) error {
	sources, err := xrefs.Sources(ctx)
	if err != nil {
		return fmt.Errorf("align: ingest: listing sources: %w", err)
	}
	known := make(map[int]bool, len(sources))
	for _, src := range sources {
		known[src.ID] = src.Known()
	}

	for _, r := range recs {
		sourceXrefID, err := strconv.Atoi(r.QueryAccVer)
		if err != nil {
			return fmt.Errorf("align: ingest: non-numeric query id %q: %w", r.QueryAccVer, err)
		}
		objectID, err := strconv.Atoi(r.TargetAccVer)
		if err != nil {
			return fmt.Errorf("align: ingest: non-numeric target id %q: %w", r.TargetAccVer, err)
		}
		x, err := xrefs.Xref(ctx, sourceXrefID)
		if err != nil {
			return fmt.Errorf("align: ingest: fetching xref %d: %w", sourceXrefID, err)
		}
		if !known[x.SourceID] {
			// The source has no external_db mapping in the target:
			// the xref is dropped from emitted artifacts and from the
			// working indices alike, so downstream selection never
			// sees state that the output files do not.
			continue
		}

		xrefID := alloc.ShiftXrefID(sourceXrefID)
		objectXrefID := alloc.NextObjectXrefID()

		written, err := w.WriteObjectXref(emit.ObjectXrefRow{
			ObjectXrefID: objectXrefID,
			ObjectID:     objectID,
			ObjectType:   target.ObjectType.String(),
			XrefID:       xrefID,
		})
		if err != nil {
			return err
		}
		if !written {
			continue
		}

		if err := w.WriteIdentity(emit.IdentityXrefRow{
			ObjectXrefID:   objectXrefID,
			QueryIdentity:  r.QueryIdentity,
			TargetIdentity: r.TargetIdentity,
			QueryStart:     r.QueryStart,
			QueryEnd:       r.QueryEnd,
			TargetStart:    r.TargetStart,
			TargetEnd:      r.TargetEnd,
			CigarLine:      r.CigarLine,
			Score:          r.Score,
		}); err != nil {
			return err
		}

		if err := store.PutMapping(pipestore.Mapping{
			ObjectType:   target.ObjectType.String(),
			ObjectID:     objectID,
			XrefID:       xrefID,
			ObjectXrefID: objectXrefID,
			Kind:         model.KindAligned,
		}); err != nil {
			return err
		}
		if err := store.PutIdentity(pipestore.Identity{
			ObjectXrefID:   objectXrefID,
			SourceID:       x.SourceID,
			QueryIdentity:  r.QueryIdentity,
			TargetIdentity: r.TargetIdentity,
		}); err != nil {
			return err
		}
		if err := store.PutMasterLink(sourceXrefID, pipestore.ObjectLink{
			ObjectType:   target.ObjectType.String(),
			ObjectID:     objectID,
			ObjectXrefID: objectXrefID,
		}); err != nil {
			return err
		}
	}
	return nil
}
