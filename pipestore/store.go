// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipestore implements the on-disk working indices the xref
// pipeline threads between propagation, display-xref selection and
// description building: which (object, xref) pairs have been mapped,
// the identity scores backing display-xref selection, the reverse
// master-to-object links, and which primary xref ids have already been
// carried through the run. The indices are modernc.org/kv databases
// with byte-ordered composite keys, so prefix range scans enumerate an
// object's mappings without loading the whole index.
package pipestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"modernc.org/kv"

	"github.com/ensembl-compara/xrefmap/model"
)

// batchSize is the transaction-commit granularity used throughout the
// store. Dependent-xref propagation consumes master xrefs in chunks of
// the same size, keeping its IN (...) clauses bounded.
const batchSize = 200

// Store is the working-index database for one pipeline run. It holds
// four independent kv tables, opened as separate files under dir
// since modernc.org/kv does not support multiple keyspaces in one file.
type Store struct {
	mappings   *kv.DB
	identities *kv.DB
	primaries  *kv.DB
	masters    *kv.DB

	mappingBatch  int
	identityBatch int
	primaryBatch  int
	masterBatch   int
}

// ObjectLink is a xref's existing attachment to a core object, the
// fan-out point dependent-xref propagation walks from a master
// xref to every object it is already attached to.
type ObjectLink struct {
	ObjectType   string
	ObjectID     int
	ObjectXrefID int
}

// Mapping is one row of the object_xref_mappings index: it records that
// xref XrefID was attached to an object via ObjectXrefID, used by the
// description builder and display selector to enumerate a gene or
// transcript's candidate xrefs.
type Mapping struct {
	ObjectType   string
	ObjectID     int
	XrefID       int
	ObjectXrefID int
	Kind         model.ObjectKind
}

// Identity is one row of the object_xref_identities index: the
// percent-identity scores and owning source used by display-xref
// selection, which ranks candidates by looking up each
// SourceID's position in the species' display_sources list.
type Identity struct {
	ObjectXrefID   int
	SourceID       int
	QueryIdentity  int
	TargetIdentity int
}

// Open opens the four index files under dir, creating any that do not
// exist yet. Indices left by an earlier run in the same directory are
// reused as-is, which is what lets a rerun skip alignment and work
// from existing mappings.
func Open(dir string) (*Store, error) {
	open := func(name string) (*kv.DB, error) {
		path := filepath.Join(dir, name)
		opts := &kv.Options{Compare: compareMappingKeys}
		if _, err := os.Stat(path); err == nil {
			db, err := kv.Open(path, opts)
			if err != nil {
				return nil, fmt.Errorf("pipestore: opening %s: %w", name, err)
			}
			return db, nil
		}
		db, err := kv.Create(path, opts)
		if err != nil {
			return nil, fmt.Errorf("pipestore: creating %s: %w", name, err)
		}
		return db, nil
	}
	mappings, err := open("object_xref_mappings.db")
	if err != nil {
		return nil, err
	}
	identities, err := open("object_xref_identities.db")
	if err != nil {
		return nil, err
	}
	primaries, err := open("primary_xref_ids.db")
	if err != nil {
		return nil, err
	}
	masters, err := open("master_links.db")
	if err != nil {
		return nil, err
	}
	return &Store{mappings: mappings, identities: identities, primaries: primaries, masters: masters}, nil
}

// Close commits any partially-filled batch and closes all four index
// files, so a later Open in the same directory sees every write.
func (s *Store) Close() error {
	for _, f := range []func() error{s.flushMappings, s.flushIdentities, s.flushPrimaries, s.flushMasters} {
		if err := f(); err != nil {
			return fmt.Errorf("pipestore: close: %w", err)
		}
	}
	for _, db := range []*kv.DB{s.mappings, s.identities, s.primaries, s.masters} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil {
			return fmt.Errorf("pipestore: close: %w", err)
		}
	}
	return nil
}

// PutMapping records that m's xref is attached to its object, batching
// commits every batchSize writes.
func (s *Store) PutMapping(m Mapping) error {
	v, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return batchedSet(s.mappings, &s.mappingBatch, mappingKey(m.ObjectType, m.ObjectID, m.XrefID), v)
}

// MappingsForObject returns every xref mapped to (objectType, objectID),
// in xref-id order.
func (s *Store) MappingsForObject(objectType string, objectID int) ([]Mapping, error) {
	if err := s.flushMappings(); err != nil {
		return nil, err
	}
	prefix := mappingPrefix(objectType, objectID)
	it, _, err := s.mappings.Seek(prefix)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	var out []Mapping
	for {
		k, v, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		var m Mapping
		if err := json.Unmarshal(v, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// PutIdentity records the identity scores for one object_xref.
func (s *Store) PutIdentity(rec Identity) error {
	v, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return batchedSet(s.identities, &s.identityBatch, objectXrefIDKey(rec.ObjectXrefID), v)
}

// Identity looks up the identity record for one object_xref_id.
func (s *Store) Identity(objectXrefID int) (Identity, bool, error) {
	if err := s.flushIdentities(); err != nil {
		return Identity{}, false, err
	}
	v, err := s.identities.Get(nil, objectXrefIDKey(objectXrefID))
	if err != nil {
		return Identity{}, false, err
	}
	if v == nil {
		return Identity{}, false, nil
	}
	var rec Identity
	if err := json.Unmarshal(v, &rec); err != nil {
		return Identity{}, false, err
	}
	return rec, true, nil
}

// PutMasterLink records that sourceXrefID (the xref's original,
// unshifted id in the xref store) is attached to an object, so a later
// dependent-xref pass can find every object a master xref reached
// without re-deriving it from object_xref_mappings (whose XrefID is
// already shifted by the id allocator's offset).
func (s *Store) PutMasterLink(sourceXrefID int, link ObjectLink) error {
	v, err := json.Marshal(link)
	if err != nil {
		return err
	}
	return batchedSet(s.masters, &s.masterBatch, masterLinkKey(sourceXrefID, link.ObjectType, link.ObjectID), v)
}

// LinksForXref returns every object a master xref is attached to.
func (s *Store) LinksForXref(sourceXrefID int) ([]ObjectLink, error) {
	if err := s.flushMasters(); err != nil {
		return nil, err
	}
	prefix := xrefIDKey(sourceXrefID)
	it, _, err := s.masters.Seek(prefix)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	var out []ObjectLink
	for {
		k, v, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		var link ObjectLink
		if err := json.Unmarshal(v, &link); err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, nil
}

// MarkPrimaryWritten records that xrefID has already been carried
// through the run.
func (s *Store) MarkPrimaryWritten(xrefID int) error {
	return batchedSet(s.primaries, &s.primaryBatch, xrefIDKey(xrefID), []byte{1})
}

// IsPrimaryWritten reports whether xrefID has already been marked.
func (s *Store) IsPrimaryWritten(xrefID int) (bool, error) {
	if err := s.flushPrimaries(); err != nil {
		return false, err
	}
	v, err := s.primaries.Get(nil, xrefIDKey(xrefID))
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// batchedSet writes key/value under db, opening a new transaction
// every batchSize writes and committing on the batchSize'th.
func batchedSet(db *kv.DB, counter *int, key, value []byte) error {
	if *counter%batchSize == 0 {
		if err := db.BeginTransaction(); err != nil {
			return err
		}
	}
	if err := db.Set(key, value); err != nil {
		return err
	}
	*counter++
	if *counter%batchSize == 0 {
		if err := db.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// flush commits a partially-filled open transaction before a read, since
// modernc.org/kv reads do not see uncommitted writes from the same
// handle's open transaction.
func flush(db *kv.DB, counter *int) error {
	if *counter%batchSize == 0 {
		return nil
	}
	if err := db.Commit(); err != nil {
		return err
	}
	*counter = 0
	return nil
}

func (s *Store) flushMappings() error   { return flush(s.mappings, &s.mappingBatch) }
func (s *Store) flushIdentities() error { return flush(s.identities, &s.identityBatch) }
func (s *Store) flushPrimaries() error  { return flush(s.primaries, &s.primaryBatch) }
func (s *Store) flushMasters() error    { return flush(s.masters, &s.masterBatch) }
