// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// xrefmap maps curated external identifiers onto a core genome
// database's genes, transcripts and translations: it aligns primary
// xref sequences against the core database, propagates dependent and
// direct xrefs, selects one display xref per gene/transcript and
// builds gene descriptions, all in one invocation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ensembl-compara/xrefmap/config"
	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/emit"
	"github.com/ensembl-compara/xrefmap/engine"
	"github.com/ensembl-compara/xrefmap/scheduler"
	"github.com/ensembl-compara/xrefmap/sqlload"
)

func main() {
	species := flag.String("species", "", "specify the species name to map (required)")
	overridePath := flag.String("config", "", "specify an optional YAML override of the species' compiled-in configuration")
	xrefDSN := flag.String("xref-dsn", "", "specify the MySQL DSN of the curated xref database (required)")
	coreDSN := flag.String("core-dsn", "", "specify the MySQL DSN of the core genome database (required)")
	speciesID := flag.Int("species-id", 0, "specify the species_id row this run maps, in both databases")
	workDir := flag.String("workdir", "", "specify the working directory for FASTA dumps, alignment output and emitted files (required)")
	sliceRegion := flag.String("slice-region", "", "specify a seq_region name to restrict the dump to (optional)")
	sliceStart := flag.Int("slice-start", 0, "specify the 1-based inclusive start of -slice-region")
	sliceEnd := flag.Int("slice-end", 0, "specify the 1-based inclusive end of -slice-region")
	dumpcheck := flag.Bool("dumpcheck", false, "specify to reuse existing FASTA dumps in -workdir instead of regenerating them")
	useExisting := flag.Bool("use-existing-mappings", false, "specify to skip alignment and reuse a prior run's working indices in -workdir")
	work := flag.Bool("work", false, "specify to keep the working directory's intermediate files on exit (required for a later -dumpcheck or -use-existing-mappings run)")
	verbose := flag.Bool("verbose", false, "specify verbose logging")
	graph := flag.Bool("graph", false, "specify to additionally write xref_graph.dot, a DOT graph of master-to-dependent xref propagation edges, in -workdir")
	uploadDSN := flag.String("upload-dsn", "", "specify a MySQL DSN of the target core database to bulk-load the emitted files into (optional; requires multiStatements=true&allowAllFiles=true)")
	uploadTruncate := flag.Bool("upload-truncate", false, "truncate each destination table before bulk-loading into it")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s -species <name> -xref-dsn <dsn> -core-dsn <dsn> -species-id <id> -workdir <dir>

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *species == "" || *xrefDSN == "" || *coreDSN == "" || *workDir == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !*verbose {
		log.SetFlags(0)
	}

	sp, err := config.Load(*species, *overridePath)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(*workDir, 0o755); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	xdb, err := sqlload.Open(*xrefDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer xdb.Close()
	cdb, err := sqlload.Open(*coreDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer cdb.Close()

	log.Printf("loading xref snapshot for species %q (species_id=%d)", *species, *speciesID)
	xrefs, err := sqlload.XrefDB(ctx, xdb, *speciesID)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loading core snapshot for species %q (species_id=%d)", *species, *speciesID)
	core, err := sqlload.CoreDB(ctx, cdb, *speciesID)
	if err != nil {
		log.Fatal(err)
	}

	var slice *coredb.Slice
	if *sliceRegion != "" {
		slice = &coredb.Slice{SeqRegion: *sliceRegion, Start: *sliceStart, End: *sliceEnd}
	}

	// The emitted .txt/.sql files are the deliverable and always stay;
	// FASTA dumps, alignment maps and the working indices are
	// intermediates removed on exit unless -work is set.
	if !*work {
		defer removeIntermediates(*workDir)
	} else {
		log.Println("keeping work")
	}

	sched := scheduler.NewLocal()

	stats, err := engine.Run(ctx, xrefs, core, sched, engine.Options{
		Species:     sp,
		WorkDir:     *workDir,
		Slice:       slice,
		DumpCheck:   *dumpcheck,
		UseExisting: *useExisting,
		Graph:       *graph,
	})
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("xrefs=%d object_xrefs=%d identity_xrefs=%d synonyms=%d go_xrefs=%d interpro=%d gene_descriptions=%d transcript_displays=%d gene_displays=%d",
		stats.Xrefs, stats.ObjectXrefs, stats.IdentityXrefs, stats.Synonyms, stats.GoXrefs, stats.InterproRows,
		stats.GeneDescriptions, stats.TranscriptDisplays, stats.GeneDisplays)

	if *uploadDSN != "" {
		log.Printf("uploading emitted files from %s into target database", *workDir)
		if err := emit.Upload(ctx, *uploadDSN, *workDir, *uploadTruncate); err != nil {
			log.Fatal(err)
		}
	}
}

func removeIntermediates(dir string) {
	for _, pattern := range []string{"*.fasta", "*.fasta.fai", "*.map", "*.db"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, m := range matches {
			os.Remove(m)
		}
	}
}
