// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"fmt"

	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/model"
)

// presetResolver implements ruleengine.NameResolver over two maps
// resolved up front, bridging coredb.Store's context-carrying,
// error-returning SpeciesID/SourceID methods to the plain,
// synchronous lookup the rule engine wants. Pre-resolving means a
// species or source unknown to the target database surfaces once, as
// a single ConfigMissing-style error, rather than mid-scan.
type presetResolver struct {
	species map[string]int
	sources map[string]int
}

func (r presetResolver) SpeciesID(name string) (int, bool) { id, ok := r.species[name]; return id, ok }
func (r presetResolver) SourceID(name string) (int, bool)  { id, ok := r.sources[name]; return id, ok }

// buildResolver resolves every species and source name referenced by
// rules against core, once, and returns a presetResolver ready for
// ruleengine.Build.
func buildResolver(ctx context.Context, core coredb.Store, rules []model.Rule) (presetResolver, error) {
	r := presetResolver{species: make(map[string]int), sources: make(map[string]int)}
	for _, rule := range rules {
		for _, pat := range rule.Pairs {
			if pat.Species != "*" {
				if _, ok := r.species[pat.Species]; !ok {
					id, ok, err := core.SpeciesID(ctx, pat.Species)
					if err != nil {
						return presetResolver{}, fmt.Errorf("engine: resolving species %q: %w", pat.Species, err)
					}
					if ok {
						r.species[pat.Species] = id
					}
				}
			}
			if pat.Source != "*" {
				if _, ok := r.sources[pat.Source]; !ok {
					id, ok, err := core.SourceID(ctx, pat.Source)
					if err != nil {
						return presetResolver{}, fmt.Errorf("engine: resolving source %q: %w", pat.Source, err)
					}
					if ok {
						r.sources[pat.Source] = id
					}
				}
			}
		}
	}
	return r, nil
}
