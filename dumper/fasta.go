// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dumper

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/ensembl-compara/xrefmap/model"
)

// wrapWidth is the FASTA sequence line width used for every dump this
// package produces (xref and core).
const wrapWidth = 60

// writeFASTA writes a single FASTA record with a bare numeric-id
// header and the sequence wrapped at wrapWidth columns.
//
// biogo's seq/linear "%60a" Format verb also emits a description after
// the id. The header here must be the id alone with no description, so
// the record is written directly with bufio rather than relying on
// that verb's description handling.
func writeFASTA(w *bufio.Writer, id int, seq string) error {
	if _, err := fmt.Fprintf(w, ">%d\n", id); err != nil {
		return err
	}
	for i := 0; i < len(seq); i += wrapWidth {
		end := i + wrapWidth
		if end > len(seq) {
			end = len(seq)
		}
		if _, err := w.WriteString(seq[i:end]); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// newWriter wraps dst in a buffered writer sized for FASTA output.
func newWriter(dst io.Writer) *bufio.Writer {
	return bufio.NewWriterSize(dst, 64*1024)
}

// reusableDump reports whether path holds a cleanly parseable FASTA of
// the kind's alphabet, so an earlier run's dump can be reused instead
// of regenerated. An empty dump parses cleanly; a truncated or corrupt
// one does not.
func reusableDump(path string, kind model.SeqKind) bool {
	alpha := alphabet.Alphabet(alphabet.DNAredundant)
	if kind == model.Peptide {
		alpha = alphabet.Protein
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	sc := seqio.NewScanner(fasta.NewReader(f, linear.NewSeq("", nil, alpha)))
	for sc.Next() {
	}
	return sc.Error() == nil
}
