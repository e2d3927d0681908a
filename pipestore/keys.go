// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipestore

import (
	"bytes"
	"encoding/binary"
)

var order = binary.BigEndian

// mappingKey orders object_xref_mappings by object type, then object id,
// then xref id — the same byte-ordered composite-key idiom as
// internal/store.MarshalBlastRecordKey, generalized from a BLAST hit's
// (subject, query) pair to an xref mapping's (object, xref) pair.
func mappingKey(objectType string, objectID, xrefID int) []byte {
	var buf bytes.Buffer
	var b [8]byte
	order.PutUint64(b[:], uint64(len(objectType)))
	buf.Write(b[:])
	buf.WriteString(objectType)
	order.PutUint64(b[:], uint64(objectID))
	buf.Write(b[:])
	order.PutUint64(b[:], uint64(xrefID))
	buf.Write(b[:])
	return buf.Bytes()
}

// mappingPrefix returns the key prefix shared by every mapping belonging
// to one object, for range scans bounded by compareMappingKeys.
func mappingPrefix(objectType string, objectID int) []byte {
	var buf bytes.Buffer
	var b [8]byte
	order.PutUint64(b[:], uint64(len(objectType)))
	buf.Write(b[:])
	buf.WriteString(objectType)
	order.PutUint64(b[:], uint64(objectID))
	buf.Write(b[:])
	return buf.Bytes()
}

// compareMappingKeys is the kv.Options.Compare function for the
// object_xref_mappings store: plain lexicographic order over the
// length-prefixed composite key is already the (objectType, objectID,
// xrefID) order we want, since every field is fixed-width or
// length-prefixed.
func compareMappingKeys(x, y []byte) int {
	return bytes.Compare(x, y)
}

// objectXrefIDKey orders object_xref_identities by object_xref_id.
func objectXrefIDKey(objectXrefID int) []byte {
	var b [8]byte
	order.PutUint64(b[:], uint64(objectXrefID))
	return b[:]
}

func compareInt64Keys(x, y []byte) int {
	return bytes.Compare(x, y)
}

// xrefIDKey orders primary_xref_ids by source xref id. It also serves as
// the range-scan prefix for master_links, since masterLinkKey places the
// xref id first.
func xrefIDKey(xrefID int) []byte {
	var b [8]byte
	order.PutUint64(b[:], uint64(xrefID))
	return b[:]
}

// masterLinkKey orders master_links by (source xref id, object type,
// object id), so LinksForXref's prefix scan on xrefIDKey(xrefID) finds
// every object a master xref is attached to.
func masterLinkKey(xrefID int, objectType string, objectID int) []byte {
	var buf bytes.Buffer
	buf.Write(xrefIDKey(xrefID))
	var b [8]byte
	order.PutUint64(b[:], uint64(len(objectType)))
	buf.Write(b[:])
	buf.WriteString(objectType)
	order.PutUint64(b[:], uint64(objectID))
	buf.Write(b[:])
	return buf.Bytes()
}
