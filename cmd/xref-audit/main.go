// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The xref-audit command inspects the pipestore kv indices left behind
// by a run of xrefmap in its working directory:
//   - object_xref_mappings.db — (object, xref) attachment edges
//   - object_xref_identities.db — identity scores per object_xref_id
//   - master_links.db — reverse index from a master xref to every
//     object it reached, used by dependent-xref propagation
//   - primary_xref_ids.db — xref ids already carried through the run
//
// Output is a JSON stream on stdout, one record per line.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"modernc.org/kv"
)

var order = binary.BigEndian

func main() {
	path := flag.String("db", "", "specify db file to audit (base must match one of the pipestore index names)")
	flag.Parse()
	base := filepath.Base(*path)
	switch base {
	case "object_xref_mappings.db", "object_xref_identities.db", "master_links.db", "primary_xref_ids.db":
	default:
		flag.Usage()
		os.Exit(2)
	}

	opts := &kv.Options{Compare: func(x, y []byte) int {
		for i := 0; i < len(x) && i < len(y); i++ {
			if x[i] != y[i] {
				return int(x[i]) - int(y[i])
			}
		}
		return len(x) - len(y)
	}}
	db, err := kv.Open(*path, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	it, err := db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return
		}
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Fatal(err)
		}
		switch base {
		case "object_xref_mappings.db", "object_xref_identities.db", "master_links.db":
			// Values are already JSON-encoded; pass through unchanged.
			os.Stdout.Write(v)
			fmt.Println()
		case "primary_xref_ids.db":
			if len(k) < 8 {
				continue
			}
			xrefID := int64(order.Uint64(k[:8]))
			if err := enc.Encode(primaryWritten{XrefID: xrefID}); err != nil {
				log.Fatal(err)
			}
		default:
			panic("unreachable")
		}
	}
}

type primaryWritten struct {
	XrefID int64
}
