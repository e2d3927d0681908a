// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package description builds one gene description per gene: for
// each gene it gathers the descriptions carried by every xref mapped to
// the gene or any of its transcripts/translations, filters out
// boilerplate text, and picks a winner by source rank with two
// source-specific tie-breaks.
package description

import (
	"regexp"
	"strings"
)

// Candidate is one xref's description considered for a gene.
type Candidate struct {
	XrefID         int
	SourceName     string
	Description    string
	QueryIdentity  int
	TargetIdentity int
}

// CompileFilters compiles the species' description_filters regexes,
// case-insensitive. A filtered description that becomes empty after
// stripping every match is dropped entirely.
func CompileFilters(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// Filter applies every regex in filters to desc, stripping a match.
// ok is false if the result is empty, meaning desc must be dropped.
func Filter(desc string, filters []*regexp.Regexp) (string, bool) {
	out := strings.TrimSpace(desc)
	for _, re := range filters {
		out = strings.TrimSpace(re.ReplaceAllString(out, ""))
	}
	return out, out != ""
}

// fillerWords are SPTREMBL boilerplate terms ordered dirtiest first.
// The tie-break in Select scores a description by the highest-index
// word it contains, so "unknown protein" outranks "unknown" alone and
// a description stuck at "hypothetical" loses to almost anything.
var fillerWords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)unknown`),
	regexp.MustCompile(`(?i)hypothetical`),
	regexp.MustCompile(`(?i)putative`),
	regexp.MustCompile(`(?i)novel`),
	regexp.MustCompile(`(?i)probable`),
	regexp.MustCompile(`[0-9]{3}`),
	regexp.MustCompile(`(?i)kDa`),
	regexp.MustCompile(`(?i)fragment`),
	regexp.MustCompile(`(?i)cdna`),
	regexp.MustCompile(`(?i)protein`),
}

// fillerScore is the index of the last fillerWords entry matching
// desc, or -1 when none match.
func fillerScore(desc string) int {
	score := -1
	for i, re := range fillerWords {
		if re.MatchString(desc) {
			score = i
		}
	}
	return score
}

// Select picks the winning candidate by total order: first by
// sourceRank position (earlier wins), then — when both candidates come
// from Uniprot/SWISSPROT or RefSeq sources — by higher query identity
// and then higher target identity, then — when both come from
// Uniprot/SPTREMBL — by higher filler-word score, else the first-seen
// candidate is kept (a stable choice, not a further tie-break).
func Select(candidates []Candidate, sourceRank []string) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	rank := make(map[string]int, len(sourceRank))
	for i, s := range sourceRank {
		rank[s] = i
	}
	rankOf := func(name string) int {
		if i, ok := rank[name]; ok {
			return i
		}
		return len(sourceRank) // unranked sources sort last
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if better(c, best, rankOf) {
			best = c
		}
	}
	return best, true
}

func better(a, b Candidate, rankOf func(string) int) bool {
	ra, rb := rankOf(a.SourceName), rankOf(b.SourceName)
	if ra != rb {
		return ra < rb
	}

	if isIdentityRanked(a.SourceName) && isIdentityRanked(b.SourceName) {
		if a.QueryIdentity != b.QueryIdentity {
			return a.QueryIdentity > b.QueryIdentity
		}
		if a.TargetIdentity != b.TargetIdentity {
			return a.TargetIdentity > b.TargetIdentity
		}
	}

	if isSPTREMBL(a.SourceName) && isSPTREMBL(b.SourceName) {
		fa, fb := fillerScore(a.Description), fillerScore(b.Description)
		if fa != fb {
			return fa > fb
		}
	}

	return false
}

func isIdentityRanked(source string) bool {
	return source == "Uniprot/SWISSPROT" || strings.HasPrefix(source, "RefSeq")
}

func isSPTREMBL(source string) bool {
	return source == "Uniprot/SPTREMBL"
}
