// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine wires every pipeline stage into the single run a cmd/xrefmap
// invocation performs: resolve the species, build rule predicates, dump
// FASTA, dispatch and wait on alignment jobs, ingest their output,
// propagate xrefs, select display xrefs, build gene descriptions, and
// flush every output file. The stages run strictly in sequence; the
// only concurrency is in the alignment jobs the scheduler runs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/ensembl-compara/xrefmap/align"
	"github.com/ensembl-compara/xrefmap/config"
	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/dumper"
	"github.com/ensembl-compara/xrefmap/emit"
	"github.com/ensembl-compara/xrefmap/idalloc"
	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/pipestore"
	"github.com/ensembl-compara/xrefmap/propagate"
	"github.com/ensembl-compara/xrefmap/ruleengine"
	"github.com/ensembl-compara/xrefmap/scheduler"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// Options configures one run.
type Options struct {
	Species      config.Species
	WorkDir      string
	Slice        *coredb.Slice
	DumpCheck    bool
	UseExisting  bool // use_existing_mappings: skip alignment, reuse a prior pipestore
	Graph        bool
}

// Run executes the full pipeline and returns the emitter's final row
// counts.
func Run(ctx context.Context, xrefs xrefdb.Store, core coredb.Store, sched scheduler.Scheduler, opts Options) (emit.Stats, error) {
	resolver, err := buildResolver(ctx, core, opts.Species.Rules)
	if err != nil {
		return emit.Stats{}, err
	}
	preds, err := ruleengine.Build(opts.Species.Rules, resolver)
	if err != nil {
		// A fatal configuration error: name the valid species or
		// sources so the rule table can be corrected without digging
		// in the database.
		var unresolved *ruleengine.UnresolvedNameError
		if errors.As(err, &unresolved) {
			switch unresolved.Kind {
			case "source":
				if sources, serr := xrefs.Sources(ctx); serr == nil {
					for _, s := range sources {
						unresolved.Valid = append(unresolved.Valid, s.Name)
					}
					sort.Strings(unresolved.Valid)
				}
			case "species":
				if names, serr := core.SpeciesNames(ctx); serr == nil {
					unresolved.Valid = names
				}
			}
		}
		return emit.Stats{}, err
	}

	ruleFiles, err := dumper.DumpXrefs(ctx, xrefs, preds, opts.WorkDir, opts.DumpCheck)
	if err != nil {
		return emit.Stats{}, err
	}
	coreFiles, err := dumper.DumpCore(ctx, core, opts.Species.Name, opts.WorkDir, opts.Slice, opts.Species.MaxDump, opts.DumpCheck)
	if err != nil {
		return emit.Stats{}, err
	}

	alloc, err := idalloc.New(ctx, core)
	if err != nil {
		return emit.Stats{}, err
	}
	pstore, err := pipestore.Open(opts.WorkDir)
	if err != nil {
		return emit.Stats{}, err
	}
	defer pstore.Close()

	writer, err := emit.New(opts.WorkDir)
	if err != nil {
		return emit.Stats{}, err
	}
	defer writer.Close()

	if !opts.UseExisting {
		if err := alignAndIngest(ctx, xrefs, sched, writer, pstore, alloc, ruleFiles, coreFiles, opts); err != nil {
			return emit.Stats{}, err
		}
	}

	prop, err := propagate.New(ctx, xrefs, writer, pstore, alloc)
	if err != nil {
		return emit.Stats{}, err
	}

	allIDs, err := collectAllXrefIDs(ctx, xrefs, opts.Species)
	if err != nil {
		return emit.Stats{}, err
	}
	masterIDs, masterObjects, err := masterLinks(pstore, allIDs)
	if err != nil {
		return emit.Stats{}, err
	}
	for _, id := range masterIDs {
		if err := prop.EmitPrimary(ctx, id); err != nil {
			return emit.Stats{}, err
		}
	}
	if err := prop.PropagateDependents(ctx, masterIDs, masterObjects); err != nil {
		return emit.Stats{}, err
	}
	if err := prop.EmitSynonyms(ctx, allIDs); err != nil {
		return emit.Stats{}, err
	}
	directs, err := xrefs.DirectXrefs(ctx)
	if err != nil {
		return emit.Stats{}, err
	}
	if err := prop.EmitDirect(ctx, core, directs); err != nil {
		return emit.Stats{}, err
	}
	if err := prop.EmitOrphans(ctx, allIDs); err != nil {
		return emit.Stats{}, err
	}
	if err := prop.EmitInterpro(ctx); err != nil {
		return emit.Stats{}, err
	}

	if err := selectDisplayXrefs(ctx, xrefs, core, pstore, writer, opts.Species); err != nil {
		return emit.Stats{}, err
	}
	if err := buildDescriptions(ctx, xrefs, core, pstore, writer, opts.Species); err != nil {
		return emit.Stats{}, err
	}

	if opts.Graph {
		if err := writer.WriteGraph(filepath.Join(opts.WorkDir, "xref_graph.dot")); err != nil {
			return emit.Stats{}, err
		}
	}

	return writer.Stats(), nil
}

// alignAndIngest submits one alignment job per rule/kind pair, waits
// for all of them, then parses, thresholds and ingests every result.
// A job that fails to submit is a SchedulerFailure warning,
// not a fatal error — the run continues with partial mappings.
func alignAndIngest(ctx context.Context, xrefs xrefdb.Store, sched scheduler.Scheduler, writer *emit.Writer, pstore *pipestore.Store, alloc *idalloc.Allocator, ruleFiles []dumper.RuleFiles, coreFiles dumper.CoreFiles, opts Options) error {
	type job struct {
		id     scheduler.JobID
		method align.Method
		kind   model.SeqKind
		out    string
	}
	var jobs []job

	for _, rf := range ruleFiles {
		method, ok := align.Lookup(rf.Method)
		if !ok {
			log.Printf("warning: rule %q names unregistered alignment method, skipping", rf.Method)
			continue
		}
		pairs := []struct {
			kind  model.SeqKind
			query string
			target string
		}{
			{model.DNA, rf.DNA, coreFiles.DNA},
			{model.Peptide, rf.Peptide, coreFiles.Protein},
		}
		for _, pair := range pairs {
			pair := pair
			// Alignment output files are named
			// <Method>_<dna|peptide>_<N>.map.
			out := filepath.Join(opts.WorkDir, fmt.Sprintf("%s_%s_%d.map", rf.Method, pair.kind, rf.Index))
			id, err := sched.Submit(ctx, scheduler.Spec{
				Name: fmt.Sprintf("%s-%s", rf.Method, pair.kind),
				Command: func(ctx context.Context) (*exec.Cmd, error) {
					runner, err := method.Command(pair.query, pair.target)
					if err != nil {
						return nil, err
					}
					cmd, err := runner.BuildCommand()
					if err != nil {
						return nil, err
					}
					return buildRedirected(cmd, out)
				},
			})
			if err != nil {
				log.Printf("warning: scheduler failure submitting %s %s: %v", rf.Method, pair.kind, err)
				continue
			}
			jobs = append(jobs, job{id: id, method: method, kind: pair.kind, out: out})
		}
	}

	ids := make([]scheduler.JobID, len(jobs))
	for i, j := range jobs {
		ids[i] = j.id
	}
	if err := sched.WaitAll(ctx, ids); err != nil {
		log.Printf("warning: one or more alignment jobs failed: %v", err)
	}

	for _, j := range jobs {
		recs, err := align.ParseFile(j.out)
		if err != nil {
			log.Printf("warning: parsing alignment output %s: %v", j.out, err)
			continue
		}
		recs = align.Filter(recs, j.method.QueryThreshold, j.method.TargetThreshold)
		target := align.Target{ObjectType: align.ObjectTypeForCoreFile(j.kind)}
		if err := align.Ingest(ctx, xrefs, writer, pstore, alloc, target, recs); err != nil {
			return fmt.Errorf("engine: ingesting %s: %w", j.out, err)
		}
	}
	return nil
}
