// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package idalloc provides a single-writer, monotonically
// increasing surrogate-id allocator seeded from the core database's
// current maxima, so every emitted object_xref_id and xref_id is
// strictly greater than anything already present in the target.
package idalloc

import (
	"context"
	"sync"

	"github.com/ensembl-compara/xrefmap/coredb"
)

// Allocator hands out strictly increasing ids for object_xref rows,
// and computes the fixed offset applied to every xref id so that
// emitted ids never collide with ids already in the target.
type Allocator struct {
	mu sync.Mutex

	nextObjectXrefID int
	xrefIDOffset     int
}

// New seeds an Allocator from the core database's current maxima. If
// the target is empty, both the object_xref counter and the xref
// offset default to 1.
func New(ctx context.Context, store coredb.Store) (*Allocator, error) {
	maxOX, err := store.MaxObjectXrefID(ctx)
	if err != nil {
		return nil, err
	}
	maxXref, err := store.MaxXrefID(ctx)
	if err != nil {
		return nil, err
	}
	return &Allocator{
		nextObjectXrefID: maxOX + 1,
		xrefIDOffset:     maxXref + 1,
	}, nil
}

// NextObjectXrefID returns the next object_xref_id and advances the
// counter.
func (a *Allocator) NextObjectXrefID() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextObjectXrefID
	a.nextObjectXrefID++
	return id
}

// ShiftXrefID applies the run's fixed xref-id offset to a source xref
// id.
func (a *Allocator) ShiftXrefID(sourceXrefID int) int {
	return sourceXrefID + a.xrefIDOffset
}
