// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dumper emits the xref FASTA subsets (one
// dna/peptide pair per rule) and the core FASTA pair (transcript cDNA,
// translation peptide) that the alignment stage consumes.
//
// Sequence lines are wrapped at 60 columns; restricting a core dump
// to one genomic slice is an interval-tree containment test.
package dumper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/biogo/hts/fai"
	"github.com/biogo/store/interval"

	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/ruleengine"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// RuleFiles names the FASTA pair produced for one rule index.
type RuleFiles struct {
	Index   int
	Method  string
	DNA     string
	Peptide string
}

// DumpXrefs emits xref_<i>_dna.fasta and xref_<i>_peptide.fasta for
// every predicate produced by the rule engine, skipping rules whose
// pair already exists on disk when dumpcheck is set.
func DumpXrefs(ctx context.Context, store xrefdb.Store, preds []ruleengine.Predicate, workDir string, dumpcheck bool) ([]RuleFiles, error) {
	byMethod := make(map[string][2]ruleengine.Predicate) // [dna, peptide]
	order := make([]string, 0)
	for _, p := range preds {
		slot, ok := byMethod[p.Method]
		if !ok {
			order = append(order, p.Method)
		}
		if p.Kind == model.Peptide {
			slot[1] = p
		} else {
			slot[0] = p
		}
		byMethod[p.Method] = slot
	}

	var out []RuleFiles
	for i, method := range order {
		dnaPath := filepath.Join(workDir, fmt.Sprintf("xref_%d_dna.fasta", i))
		pepPath := filepath.Join(workDir, fmt.Sprintf("xref_%d_peptide.fasta", i))

		if dumpcheck && reusableDump(dnaPath, model.DNA) && reusableDump(pepPath, model.Peptide) {
			out = append(out, RuleFiles{Index: i, Method: method, DNA: dnaPath, Peptide: pepPath})
			continue
		}

		slot := byMethod[method]
		if err := dumpOne(ctx, store, slot[0], dnaPath); err != nil {
			return nil, err
		}
		if err := dumpOne(ctx, store, slot[1], pepPath); err != nil {
			return nil, err
		}
		out = append(out, RuleFiles{Index: i, Method: method, DNA: dnaPath, Peptide: pepPath})
	}
	return out, nil
}

func dumpOne(ctx context.Context, store xrefdb.Store, pred ruleengine.Predicate, path string) error {
	xrefs, err := store.PrimaryXrefs(ctx, pred.Kind, pred.SQL)
	if err != nil {
		return fmt.Errorf("dumper: fetching primary xrefs for %s: %w", pred.Method, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dumper: creating %s: %w", path, err)
	}
	defer f.Close()
	w := newWriter(f)
	for _, x := range xrefs {
		if err := writeFASTA(w, x.ID, x.Sequence); err != nil {
			return fmt.Errorf("dumper: writing %s: %w", path, err)
		}
	}
	return w.Flush()
}

// CoreFiles names the core dump's two output FASTAs.
type CoreFiles struct {
	DNA     string
	Protein string
}

// DumpCore emits <species>_dna.fasta (spliced transcript cDNA) and
// <species>_protein.fasta (translation peptide). slice, if non-nil,
// restricts the dump to genes overlapping that genomic region, and
// every transcript of a kept gene is dumped; maxdump, if positive, caps the number of transcripts dumped.
func DumpCore(ctx context.Context, store coredb.Store, species string, workDir string, slice *coredb.Slice, maxdump int, dumpcheck bool) (CoreFiles, error) {
	dnaPath := filepath.Join(workDir, species+"_dna.fasta")
	protPath := filepath.Join(workDir, species+"_protein.fasta")
	cf := CoreFiles{DNA: dnaPath, Protein: protPath}

	if dumpcheck && reusableDump(dnaPath, model.DNA) && reusableDump(protPath, model.Peptide) {
		return cf, nil
	}

	genes, err := store.Genes(ctx, slice)
	if err != nil {
		return cf, fmt.Errorf("dumper: fetching genes: %w", err)
	}
	if slice != nil {
		genes = filterBySlice(genes, *slice)
	}

	dnaFile, err := os.Create(dnaPath)
	if err != nil {
		return cf, fmt.Errorf("dumper: creating %s: %w", dnaPath, err)
	}
	defer dnaFile.Close()
	protFile, err := os.Create(protPath)
	if err != nil {
		return cf, fmt.Errorf("dumper: creating %s: %w", protPath, err)
	}
	defer protFile.Close()

	dnaW := newWriter(dnaFile)
	protW := newWriter(protFile)

	dumped := 0
	for _, g := range genes {
		transcripts, err := store.TranscriptsOf(ctx, g.InternalID)
		if err != nil {
			return cf, fmt.Errorf("dumper: fetching transcripts of gene %d: %w", g.InternalID, err)
		}
		for _, t := range transcripts {
			if maxdump > 0 && dumped >= maxdump {
				break
			}
			seq, err := store.TranscriptSequence(ctx, t.InternalID)
			if err != nil {
				return cf, fmt.Errorf("dumper: fetching sequence of transcript %d: %w", t.InternalID, err)
			}
			if err := writeFASTA(dnaW, t.InternalID, seq); err != nil {
				return cf, fmt.Errorf("dumper: writing %s: %w", dnaPath, err)
			}
			dumped++

			tr, ok, err := store.TranslationOf(ctx, t.InternalID)
			if err != nil {
				return cf, fmt.Errorf("dumper: fetching translation of transcript %d: %w", t.InternalID, err)
			}
			if !ok {
				continue
			}
			pepSeq, err := store.TranslationSequence(ctx, tr.InternalID)
			if err != nil {
				return cf, fmt.Errorf("dumper: fetching sequence of translation %d: %w", tr.InternalID, err)
			}
			if err := writeFASTA(protW, tr.InternalID, pepSeq); err != nil {
				return cf, fmt.Errorf("dumper: writing %s: %w", protPath, err)
			}
		}
	}

	if err := dnaW.Flush(); err != nil {
		return cf, err
	}
	if err := protW.Flush(); err != nil {
		return cf, err
	}

	// Build a faidx alongside the DNA dump so downstream tools can
	// random-access a transcript by id without re-scanning the file.
	if _, err := dnaFile.Seek(0, 0); err != nil {
		return cf, err
	}
	idx, err := fai.NewIndex(dnaFile)
	if err != nil {
		return cf, fmt.Errorf("dumper: indexing %s: %w", dnaPath, err)
	}
	if err := writeFaidx(dnaPath+".fai", idx); err != nil {
		return cf, err
	}

	return cf, nil
}

// transcriptSpan adapts a transcript CoreObject to biogo/store/interval's
// IntInterface, the same adapter shape as cmd/cull's subjectInterval.
type transcriptSpan struct {
	uid uintptr
	model.CoreObject
}

func (s transcriptSpan) Overlap(b interval.IntRange) bool {
	return b.Start <= s.End && s.Start <= b.End
}
func (s transcriptSpan) ID() uintptr { return s.uid }
func (s transcriptSpan) Range() interval.IntRange {
	return interval.IntRange{Start: s.Start, End: s.End}
}

// filterBySlice returns the genes whose span overlaps slice, built over
// an interval.IntTree exactly as cmd/cull/main.go builds one over GFF
// features before culling.
func filterBySlice(genes []model.CoreObject, slice coredb.Slice) []model.CoreObject {
	var tree interval.IntTree
	for i, g := range genes {
		if g.SeqRegion != slice.SeqRegion {
			continue
		}
		if err := tree.Insert(transcriptSpan{uid: uintptr(i), CoreObject: g}, false); err != nil {
			panic(fmt.Sprint(err))
		}
	}
	tree.AdjustRanges()
	hits := tree.Get(transcriptSpan{CoreObject: model.CoreObject{Start: slice.Start, End: slice.End}})

	out := make([]model.CoreObject, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(transcriptSpan).CoreObject)
	}
	return out
}
