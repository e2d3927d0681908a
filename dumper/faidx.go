// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dumper

import (
	"os"

	"github.com/biogo/hts/fai"
)

// writeFaidx persists idx in the standard .fai text format alongside
// a core DNA dump, the same index biogo/hts/fai.NewFile consumes for
// random access.
func writeFaidx(path string, idx fai.Index) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := fai.WriteTo(f, idx); err != nil {
		return err
	}
	return nil
}
