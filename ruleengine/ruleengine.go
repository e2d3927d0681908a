// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ruleengine translates a species' rule table (method ×
// (species, source) patterns) into SQL predicates that restrict a
// primary_xref scan to the sequences that rule's alignment method
// should consume.
//
// This is plain SQL-fragment string assembly, not external-tool
// command construction, so it is built with strings.Builder rather
// than the buildarg templating the align package uses for invoking an
// executable.
package ruleengine

import (
	"fmt"
	"strings"

	"github.com/ensembl-compara/xrefmap/model"
)

// NameResolver maps a species or source name to its numeric id. A
// name absent from both maps is a fatal configuration error.
type NameResolver interface {
	SpeciesID(name string) (int, bool)
	SourceID(name string) (int, bool)
}

// Predicate is one sequence_type-specific SQL fragment generated for a
// Rule.
type Predicate struct {
	Method string
	Kind   model.SeqKind
	SQL    string // "" means "fetch everything for this sequence_type"
}

// UnresolvedNameError reports a rule referencing a species or source
// name the xref store doesn't know.
type UnresolvedNameError struct {
	Rule  string
	Kind  string
	Name  string
	Valid []string
}

func (e *UnresolvedNameError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("ruleengine: rule %q: unresolved %s %q", e.Rule, e.Kind, e.Name)
	}
	return fmt.Sprintf("ruleengine: rule %q: unresolved %s %q (valid: %s)", e.Rule, e.Kind, e.Name, strings.Join(e.Valid, ", "))
}

// Build generates the dna and peptide predicates for every rule, in
// rule-table order.
func Build(rules []model.Rule, resolve NameResolver) ([]Predicate, error) {
	var preds []Predicate
	for _, r := range rules {
		for _, kind := range []model.SeqKind{model.DNA, model.Peptide} {
			p, err := buildOne(r, kind, resolve)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
	}
	return preds, nil
}

func buildOne(r model.Rule, kind model.SeqKind, resolve NameResolver) (Predicate, error) {
	if r.IsWildcard() {
		return Predicate{Method: r.Method, Kind: kind, SQL: ""}, nil
	}

	var clauses []string
	for _, pat := range r.Pairs {
		clause, err := clauseFor(r.Method, pat, resolve)
		if err != nil {
			return Predicate{}, err
		}
		clauses = append(clauses, clause)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "primary_xref.sequence_type = %s", sqlQuote(kind.String()))
	if len(clauses) > 0 {
		b.WriteString("\n  AND ( ")
		b.WriteString(strings.Join(clauses, " OR "))
		b.WriteString(" )")
	}
	return Predicate{Method: r.Method, Kind: kind, SQL: b.String()}, nil
}

func clauseFor(method string, pat model.SourcePattern, resolve NameResolver) (string, error) {
	switch {
	case pat.Species == "*" && pat.Source == "*":
		return "1 = 1", nil
	case pat.Source == "*":
		sid, ok := resolve.SpeciesID(pat.Species)
		if !ok {
			return "", &UnresolvedNameError{Rule: method, Kind: "species", Name: pat.Species}
		}
		return fmt.Sprintf("(species_id = %d)", sid), nil
	case pat.Species == "*":
		rid, ok := resolve.SourceID(pat.Source)
		if !ok {
			return "", &UnresolvedNameError{Rule: method, Kind: "source", Name: pat.Source}
		}
		return fmt.Sprintf("(source_id = %d)", rid), nil
	default:
		sid, ok := resolve.SpeciesID(pat.Species)
		if !ok {
			return "", &UnresolvedNameError{Rule: method, Kind: "species", Name: pat.Species}
		}
		rid, ok := resolve.SourceID(pat.Source)
		if !ok {
			return "", &UnresolvedNameError{Rule: method, Kind: "source", Name: pat.Source}
		}
		return fmt.Sprintf("(species_id = %d AND source_id = %d)", sid, rid), nil
	}
}

func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
