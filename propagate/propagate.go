// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package propagate walks the object_xrefs produced by alignment
// (align.Ingest) and direct curation out to every xref and object_xref
// row the run emits: primary xref rows, the dependent-xref closure,
// synonym rows, the direct-xref pass, orphan xrefs, and interpro
// pass-through, respecting the write-once guards on xref.txt and
// object_xref.txt.
package propagate

import (
	"context"
	"fmt"
	"strings"

	"github.com/ensembl-compara/xrefmap/emit"
	"github.com/ensembl-compara/xrefmap/idalloc"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/pipestore"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// chunkSize is the master-xref batching granularity for dependent
// lookups, matching pipestore's own commit batch size.
const chunkSize = 200

// Propagator threads the shared state (allocator, write-once writer,
// working indices, source lookup) through every propagation pass.
type Propagator struct {
	store  xrefdb.Store
	writer *emit.Writer
	index  *pipestore.Store
	alloc  *idalloc.Allocator

	sources map[int]model.Source // by source id
}

// New builds a Propagator, loading and indexing every known source up
// front so later passes can test Source.Known() without a lookup.
func New(ctx context.Context, store xrefdb.Store, writer *emit.Writer, index *pipestore.Store, alloc *idalloc.Allocator) (*Propagator, error) {
	sources, err := store.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("propagate: loading sources: %w", err)
	}
	p := &Propagator{store: store, writer: writer, index: index, alloc: alloc, sources: make(map[int]model.Source, len(sources))}
	for _, s := range sources {
		p.sources[s.ID] = s
	}
	return p, nil
}

// EmitPrimary writes the xref row for a primary xref that already has
// an object_xref (i.e. it survived alignment and align.Ingest has
// already written its object_xref/identity_xref rows). It is a no-op
// if the xref has already been written this run.
func (p *Propagator) EmitPrimary(ctx context.Context, xrefID int) error {
	x, err := p.store.Xref(ctx, xrefID)
	if err != nil {
		return fmt.Errorf("propagate: fetching xref %d: %w", xrefID, err)
	}
	return p.emitXref(x, false)
}

// EmitOrphans writes the xref row for every xref in allXrefIDs whose
// row has not been written yet in this run — for example a primary
// xref that failed every rule's alignment threshold, or one whose
// source no rule matched. These
// rows stay in xref.txt for audit purposes even though they never
// appear in object_xref.txt.
func (p *Propagator) EmitOrphans(ctx context.Context, allXrefIDs []int) error {
	for _, id := range allXrefIDs {
		if p.writer.HasXref(p.alloc.ShiftXrefID(id)) {
			continue
		}
		x, err := p.store.Xref(ctx, id)
		if err != nil {
			return fmt.Errorf("propagate: fetching orphan xref %d: %w", id, err)
		}
		if err := p.emitXref(x, false); err != nil {
			return err
		}
	}
	return nil
}

func (p *Propagator) emitXref(x model.Xref, dependent bool) error {
	src, ok := p.sources[x.SourceID]
	if !ok || !src.Known() {
		// UnknownSource: dropped, not fatal.
		return nil
	}
	shifted := p.alloc.ShiftXrefID(x.ID)
	_, err := p.writer.WriteXref(emit.XrefRow{
		XrefID:       shifted,
		ExternalDBID: src.ExternalDBID,
		Accession:    x.Accession,
		Label:        x.ResolvedLabel(),
		Version:      x.Version,
		Description:  x.Description,
		Dependent:    dependent,
	})
	return err
}

// PropagateDependents walks the dependent-xref closure from the given
// set of already-mapped master xref ids: every dependent inherits its
// master's object_xref edges and identity scores verbatim,
// and is itself emitted with the DEPENDENT marker. GO-sourced
// dependents additionally get a go_xref row carrying the linkage
// annotation.
func (p *Propagator) PropagateDependents(ctx context.Context, masterXrefIDs []int, masterObjects map[int][]pipestore.ObjectLink) error {
	for start := 0; start < len(masterXrefIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(masterXrefIDs) {
			end = len(masterXrefIDs)
		}
		batch := masterXrefIDs[start:end]

		deps, err := p.store.DependentsOf(ctx, batch)
		if err != nil {
			return fmt.Errorf("propagate: fetching dependents: %w", err)
		}
		for _, d := range deps {
			dependentXref, err := p.store.Xref(ctx, d.DependentXrefID)
			if err != nil {
				return fmt.Errorf("propagate: fetching dependent xref %d: %w", d.DependentXrefID, err)
			}
			if err := p.emitXref(dependentXref, true); err != nil {
				return err
			}
			p.writer.RecordPropagationEdge(d.MasterXrefID, d.DependentXrefID)

			src, known := p.sources[dependentXref.SourceID]
			if !known || !src.Known() {
				continue
			}
			shifted := p.alloc.ShiftXrefID(dependentXref.ID)

			for _, link := range masterObjects[d.MasterXrefID] {
				objectXrefID := p.alloc.NextObjectXrefID()
				written, err := p.writer.WriteObjectXref(emit.ObjectXrefRow{
					ObjectXrefID: objectXrefID,
					ObjectID:     link.ObjectID,
					ObjectType:   link.ObjectType,
					XrefID:       shifted,
					Dependent:    true,
				})
				if err != nil {
					return err
				}
				if !written {
					continue
				}

				// Identity inheritance: (object, master) identities are
				// copied verbatim to (object, dependent).
				if ident, ok, err := p.index.Identity(link.ObjectXrefID); err != nil {
					return err
				} else if ok {
					if err := p.writer.WriteIdentity(emit.IdentityXrefRow{
						ObjectXrefID:   objectXrefID,
						QueryIdentity:  ident.QueryIdentity,
						TargetIdentity: ident.TargetIdentity,
					}); err != nil {
						return err
					}
					if err := p.index.PutIdentity(pipestore.Identity{
						ObjectXrefID:   objectXrefID,
						SourceID:       dependentXref.SourceID,
						QueryIdentity:  ident.QueryIdentity,
						TargetIdentity: ident.TargetIdentity,
					}); err != nil {
						return err
					}
				}

				if err := p.index.PutMapping(pipestore.Mapping{
					ObjectType:   link.ObjectType,
					ObjectID:     link.ObjectID,
					XrefID:       shifted,
					ObjectXrefID: objectXrefID,
					Kind:         model.KindDependent,
				}); err != nil {
					return err
				}

				if strings.EqualFold(src.Name, "GO") {
					if err := p.writer.WriteGo(objectXrefID, d.LinkageAnnot); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// EmitSynonyms writes every synonym of the given xref ids.
func (p *Propagator) EmitSynonyms(ctx context.Context, xrefIDs []int) error {
	syns, err := p.store.SynonymsOf(ctx, xrefIDs)
	if err != nil {
		return fmt.Errorf("propagate: fetching synonyms: %w", err)
	}
	for _, s := range syns {
		if err := p.writer.WriteSynonym(p.alloc.ShiftXrefID(s.XrefID), s.Synonym); err != nil {
			return err
		}
	}
	return nil
}

// EmitInterpro passes every interpro↔pfam row straight through.
func (p *Propagator) EmitInterpro(ctx context.Context) error {
	rows, err := p.store.Interpro(ctx)
	if err != nil {
		return fmt.Errorf("propagate: fetching interpro: %w", err)
	}
	for _, r := range rows {
		if err := p.writer.WriteInterpro(r.InterproAccession, r.PfamAccession); err != nil {
			return err
		}
	}
	return nil
}
