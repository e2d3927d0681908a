// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceKnown(t *testing.T) {
	tests := []struct {
		source Source
		known  bool
	}{
		{Source{Name: "ZFIN", ExternalDBID: 0}, false},
		{Source{Name: "ZFIN", ExternalDBID: 8}, true},
	}
	for _, test := range tests {
		assert.Equal(t, test.known, test.source.Known(), "%+v", test.source)
	}
}

func TestXrefResolvedLabel(t *testing.T) {
	tests := []struct {
		xref  Xref
		label string
	}{
		{Xref{Accession: "NM_001", Label: ""}, "NM_001"},
		{Xref{Accession: "NM_001", Label: "MyLabel"}, "MyLabel"},
	}
	for _, test := range tests {
		assert.Equal(t, test.label, test.xref.ResolvedLabel())
	}
}

func TestRuleIsWildcard(t *testing.T) {
	tests := []struct {
		rule Rule
		want bool
	}{
		{Rule{Method: "m", Pairs: []SourcePattern{{"*", "*"}}}, true},
		{Rule{Method: "m", Pairs: []SourcePattern{{"*", "*"}, {"*", "*"}}}, true},
		{Rule{Method: "m", Pairs: []SourcePattern{{"*", "*"}, {"danio_rerio", "*"}}}, false},
		{Rule{Method: "m", Pairs: []SourcePattern{{"danio_rerio", "ZFIN_ID"}}}, false},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.rule.IsWildcard(), "%+v", test.rule)
	}
}

func TestObjectTypeString(t *testing.T) {
	tests := []struct {
		t    ObjectType
		want string
	}{
		{Gene, "Gene"},
		{Transcript, "Transcript"},
		{Translation, "Translation"},
		{ObjectType(99), "Unknown"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.t.String())
	}
}

func TestSeqKindString(t *testing.T) {
	assert.Equal(t, "dna", DNA.String())
	assert.Equal(t, "peptide", Peptide.String())
}
