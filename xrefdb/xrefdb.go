// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xrefdb defines the read boundary onto the curated xref store.
// How the underlying SQL is executed and how connections are pooled is
// explicitly out of scope: callers depend only on the Store
// interface below. Mem is a fixture-backed implementation used by tests
// and by any caller that has already loaded a snapshot into memory.
package xrefdb

import (
	"context"
	"fmt"

	"github.com/ensembl-compara/xrefmap/model"
)

// Store is everything the pipeline needs to read from the xref store.
type Store interface {
	// Sources returns every known Source row.
	Sources(ctx context.Context) ([]model.Source, error)
	// PrimaryXrefs returns primary xrefs (those with an alignable
	// sequence) matching the given SQL predicate fragment (may be
	// empty, meaning "all").
	PrimaryXrefs(ctx context.Context, kind model.SeqKind, predicateSQL string) ([]model.PrimaryXref, error)
	// Xref fetches a single xref by id.
	Xref(ctx context.Context, id int) (model.Xref, error)
	// Xrefs fetches a batch of xrefs by id, in the order requested.
	Xrefs(ctx context.Context, ids []int) ([]model.Xref, error)
	// DependentsOf returns every DependentXref whose master is in ids.
	DependentsOf(ctx context.Context, masterIDs []int) ([]model.DependentXref, error)
	// DirectXrefs returns every curated direct xref.
	DirectXrefs(ctx context.Context) ([]model.DirectXref, error)
	// SynonymsOf returns every Synonym for the given xref ids.
	SynonymsOf(ctx context.Context, ids []int) ([]model.Synonym, error)
	// AllXrefIDsForSource returns every xref id belonging to a source,
	// used to find orphan xrefs.
	AllXrefIDsForSource(ctx context.Context, sourceID int) ([]int, error)
	// Interpro returns the interpro↔pfam pass-through table.
	Interpro(ctx context.Context) ([]model.Interpro, error)
}

// Mem is an in-memory Store, typically built once from a fixture or a
// prior bulk read, then reused across a run and in tests.
type Mem struct {
	SourceList     []model.Source
	PrimaryList    []model.PrimaryXref
	XrefByID       map[int]model.Xref
	Dependents     []model.DependentXref
	Directs        []model.DirectXref
	SynonymsByXref map[int][]model.Synonym
	InterproList   []model.Interpro
}

// NewMem builds a Mem store, indexing XrefByID from PrimaryList and any
// additional xrefs supplied in extra.
func NewMem(sources []model.Source, primary []model.PrimaryXref, extra []model.Xref, deps []model.DependentXref, direct []model.DirectXref, syn []model.Synonym, interpro []model.Interpro) *Mem {
	m := &Mem{
		SourceList:     sources,
		PrimaryList:    primary,
		XrefByID:       make(map[int]model.Xref),
		Dependents:     deps,
		Directs:        direct,
		SynonymsByXref: make(map[int][]model.Synonym),
		InterproList:   interpro,
	}
	for _, p := range primary {
		m.XrefByID[p.ID] = p.Xref
	}
	for _, x := range extra {
		m.XrefByID[x.ID] = x
	}
	for _, s := range syn {
		m.SynonymsByXref[s.XrefID] = append(m.SynonymsByXref[s.XrefID], s)
	}
	return m
}

func (m *Mem) Sources(ctx context.Context) ([]model.Source, error) { return m.SourceList, nil }

func (m *Mem) PrimaryXrefs(ctx context.Context, kind model.SeqKind, predicateSQL string) ([]model.PrimaryXref, error) {
	var out []model.PrimaryXref
	for _, p := range m.PrimaryList {
		if p.SequenceType == kind {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Mem) Xref(ctx context.Context, id int) (model.Xref, error) {
	x, ok := m.XrefByID[id]
	if !ok {
		return model.Xref{}, errNotFound(id)
	}
	return x, nil
}

func (m *Mem) Xrefs(ctx context.Context, ids []int) ([]model.Xref, error) {
	out := make([]model.Xref, 0, len(ids))
	for _, id := range ids {
		x, ok := m.XrefByID[id]
		if !ok {
			continue
		}
		out = append(out, x)
	}
	return out, nil
}

func (m *Mem) DependentsOf(ctx context.Context, masterIDs []int) ([]model.DependentXref, error) {
	want := make(map[int]bool, len(masterIDs))
	for _, id := range masterIDs {
		want[id] = true
	}
	var out []model.DependentXref
	for _, d := range m.Dependents {
		if want[d.MasterXrefID] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Mem) DirectXrefs(ctx context.Context) ([]model.DirectXref, error) { return m.Directs, nil }

func (m *Mem) SynonymsOf(ctx context.Context, ids []int) ([]model.Synonym, error) {
	var out []model.Synonym
	for _, id := range ids {
		out = append(out, m.SynonymsByXref[id]...)
	}
	return out, nil
}

func (m *Mem) AllXrefIDsForSource(ctx context.Context, sourceID int) ([]int, error) {
	var out []int
	for id, x := range m.XrefByID {
		if x.SourceID == sourceID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *Mem) Interpro(ctx context.Context) ([]model.Interpro, error) { return m.InterproList, nil }

type notFoundError int

func (e notFoundError) Error() string { return fmt.Sprintf("xrefdb: xref %d not found", int(e)) }
func errNotFound(id int) error        { return notFoundError(id) }
