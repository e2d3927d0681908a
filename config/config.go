// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config resolves the per-species knobs that drive a run of the
// xref mapping engine: the rule table, the transcript/gene display-xref
// source priorities, the gene-description filter regexes and the
// species' consortium source name.
//
// Species are held in a compiled-in registry of named parameter sets.
// An optional YAML file can override individual fields of a registry
// entry without needing a recompile.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ensembl-compara/xrefmap/model"
)

// Species is the fully resolved configuration for one species' run.
type Species struct {
	Name                   string       `yaml:"-"`
	Rules                  []model.Rule `yaml:"rules"`
	DisplaySources         []string     `yaml:"display_sources"`
	DescriptionFilters     []string     `yaml:"description_filters"`
	DescriptionSourceOrder []string     `yaml:"description_source_order"`
	Consortium             string       `yaml:"consortium"`
	MaxDump                int          `yaml:"max_dump"`
}

// registry is the compiled-in set of known species configurations. New
// species are added here, not by editing engine logic.
var registry = map[string]Species{
	"danio_rerio": {
		Rules: []model.Rule{
			{Method: "exonerate_dna", Pairs: []model.SourcePattern{{Species: "*", Source: "RefSeq_dna"}}},
			{Method: "exonerate_peptide", Pairs: []model.SourcePattern{{Species: "*", Source: "Uniprot/SWISSPROT"}, {Species: "*", Source: "Uniprot/SPTREMBL"}}},
		},
		DisplaySources: []string{
			"ZFIN_ID",
			"Uniprot/SWISSPROT",
			"RefSeq_peptide",
			"RefSeq_dna",
			"Uniprot/SPTREMBL",
		},
		DescriptionFilters: []string{
			`^\s*\(\s*fragment\s*\)\s*$`,
			`^predicted\s+protein\s*$`,
		},
		DescriptionSourceOrder: []string{
			"Uniprot/SWISSPROT",
			"RefSeq_peptide",
			"RefSeq_dna",
			"Uniprot/SPTREMBL",
		},
		Consortium: "ZFIN_ID",
		MaxDump:    0,
	},
	"homo_sapiens": {
		Rules: []model.Rule{
			{Method: "exonerate_dna", Pairs: []model.SourcePattern{{Species: "*", Source: "RefSeq_dna"}}},
			{Method: "exonerate_peptide", Pairs: []model.SourcePattern{{Species: "*", Source: "*"}}},
		},
		DisplaySources: []string{
			"HGNC",
			"Uniprot/SWISSPROT",
			"RefSeq_peptide",
			"RefSeq_dna",
			"Uniprot/SPTREMBL",
		},
		DescriptionFilters: []string{
			`^\s*\(\s*fragment\s*\)\s*$`,
		},
		DescriptionSourceOrder: []string{
			"Uniprot/SWISSPROT",
			"RefSeq_peptide",
			"RefSeq_dna",
			"Uniprot/SPTREMBL",
		},
		Consortium: "HGNC",
		MaxDump:    0,
	},
}

// Names returns the sorted list of known species keys, used to build
// the enumeration in a ConfigMissing error.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MissingError reports an unknown species or source name, enumerating
// the valid names.
type MissingError struct {
	Kind  string // "species" or "source"
	Name  string
	Valid []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("config: unknown %s %q; valid names: %v", e.Kind, e.Name, e.Valid)
}

// Load resolves the Species configuration for name, optionally merging a
// YAML override file on top of the compiled registry entry. An unknown
// species name is a fatal *MissingError.
func Load(name string, overridePath string) (Species, error) {
	base, ok := registry[name]
	if !ok {
		return Species{}, &MissingError{Kind: "species", Name: name, Valid: Names()}
	}
	base.Name = name

	if overridePath == "" {
		return base, nil
	}

	b, err := os.ReadFile(overridePath)
	if err != nil {
		return Species{}, fmt.Errorf("config: reading override %s: %w", overridePath, err)
	}
	var override Species
	if err := yaml.Unmarshal(b, &override); err != nil {
		return Species{}, fmt.Errorf("config: parsing override %s: %w", overridePath, err)
	}
	merge(&base, override)
	base.Name = name
	return base, nil
}

// merge overlays any non-zero field of override onto base.
func merge(base *Species, override Species) {
	if override.Rules != nil {
		base.Rules = override.Rules
	}
	if override.DisplaySources != nil {
		base.DisplaySources = override.DisplaySources
	}
	if override.DescriptionFilters != nil {
		base.DescriptionFilters = override.DescriptionFilters
	}
	if override.DescriptionSourceOrder != nil {
		base.DescriptionSourceOrder = override.DescriptionSourceOrder
	}
	if override.Consortium != "" {
		base.Consortium = override.Consortium
	}
	if override.MaxDump != 0 {
		base.MaxDump = override.MaxDump
	}
}
