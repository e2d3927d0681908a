// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package align provides the pluggable alignment-method
// registry a Rule's Method name resolves to, and the parser that turns
// an alignment tool's output into alignment records the pipeline can
// threshold and ingest.
//
// Exonerate builds its command line with buildarg-tagged fields and
// drives the tool's --ryo "roll your own" format string, chosen so
// the tool's native tokens can fill every column of this package's
// colon-separated Record layout without fabricating data exonerate
// doesn't report.
package align

import (
	"errors"
	"os/exec"
	"strings"
	"text/template"

	"github.com/biogo/external"
)

// ryoFormat produces one line per alignment in the colon-separated
// 12-field layout ParseRecords expects: label, query id, target id, raw
// identity count, query length, target length, query start, query end,
// target start, target end, cigar, score. The leading "exonerate"
// literal fills the label column; %ei supplies the raw equivalenced-
// identical count and %ql/%tl the full query/target lengths, so
// ParseRecords can derive query_identity%/target_identity% independently instead of
// exonerate's single merged %pi figure.
const ryoFormat = `exonerate:%qi:%ti:%ei:%ql:%tl:%qab:%qae:%tab:%tae:%C:%s\n`

// MakeDB mirrors blast.MakeDB's role: it builds the target sequence
// index exonerate searches against.
type MakeDB struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}fasta2esd{{end}}"`

	In  string `buildarg:"{{.}}"`
	Out string `buildarg:"{{.}}"`
}

func (m MakeDB) BuildCommand() (*exec.Cmd, error) {
	if m.In == "" || m.Out == "" {
		return nil, errors.New("align: makedb missing in/out filename")
	}
	cl := external.Must(external.Build(m))
	return exec.Command(cl[0], cl[1:]...), nil
}

// Exonerate describes one invocation of exonerate as a query/target
// alignment, the pipeline's only built-in Method.
type Exonerate struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}exonerate{{end}}"`

	Model string `buildarg:"{{with .}}--model{{split}}{{.}}{{end}}"` // affine:local, est2genome, ...

	Query  string `buildarg:"{{with .}}--query{{split}}{{.}}{{end}}"`
	Target string `buildarg:"{{with .}}--target{{split}}{{.}}{{end}}"`

	Ryo        string `buildarg:"{{with .}}--ryo{{split}}{{.}}{{end}}"`
	ShowVulgar bool   `buildarg:"--showvulgar{{split}}{{.}}"`
	ShowAlign  bool   `buildarg:"--showalignment{{split}}{{.}}"`

	Threads int `buildarg:"{{if .}}--cores{{split}}{{.}}{{end}}"`

	// ExtraFlags is passed through to exonerate without interpretation,
	// the same escape hatch blast.Nucleic.ExtraFlags offers.
	ExtraFlags string
}

// BuildCommand realizes e as an *exec.Cmd, forcing Ryo to ryoFormat and
// suppressing exonerate's verbose alignment dump so stdout is exactly
// the --ryo lines ParseRecords consumes.
func (e Exonerate) BuildCommand() (*exec.Cmd, error) {
	if e.Query == "" || e.Target == "" {
		return nil, errors.New("align: exonerate missing query/target")
	}
	e.Ryo = ryoFormat
	e.ShowVulgar = false
	e.ShowAlign = false
	cl := external.Must(external.Build(e, template.FuncMap{}))
	var extra []string
	if e.ExtraFlags != "" {
		extra = strings.Split(e.ExtraFlags, " ")
	}
	return exec.Command(cl[0], append(cl[1:], extra...)...), nil
}

// Method names one pluggable alignment command and the thresholds the
// ingest step applies to its output.
type Method struct {
	Name            string
	QueryThreshold  int
	TargetThreshold int
	Command         func(query, target string) (Runner, error)
}

// Runner is anything that can be turned into an *exec.Cmd and run.
type Runner interface {
	BuildCommand() (*exec.Cmd, error)
}

// registry maps a rule's Method name to the command that realizes it.
// "exonerate", "exonerate_dna" and "exonerate_peptide" are built in;
// other Methods are added by the caller through Register. A rule naming a Method absent from this map is skipped with
// a warning rather than failing the run.
var registry = map[string]Method{
	"exonerate": {
		Name:            "exonerate",
		QueryThreshold:  90,
		TargetThreshold: 90,
		Command: func(query, target string) (Runner, error) {
			return Exonerate{Model: "affine:local", Query: query, Target: target}, nil
		},
	},
	// A rule table names its alignment method per dna/peptide role:
	// the dna method runs exonerate's affine:local model with 90%
	// thresholds, the peptide method its protein2genome model with
	// 50% thresholds.
	"exonerate_dna": {
		Name:            "exonerate_dna",
		QueryThreshold:  90,
		TargetThreshold: 90,
		Command: func(query, target string) (Runner, error) {
			return Exonerate{Model: "affine:local", Query: query, Target: target}, nil
		},
	},
	"exonerate_peptide": {
		Name:            "exonerate_peptide",
		QueryThreshold:  50,
		TargetThreshold: 50,
		Command: func(query, target string) (Runner, error) {
			return Exonerate{Model: "protein2genome", Query: query, Target: target}, nil
		},
	},
}

// Lookup returns the registered Method for name.
func Lookup(name string) (Method, bool) {
	m, ok := registry[name]
	return m, ok
}

// Register adds or replaces a Method, letting a deployment wire in a
// tool other than exonerate behind the same Rule.Method name.
func Register(m Method) { registry[m.Name] = m }

// Names returns every registered Method name.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
