// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package emit produces the bulk-loadable tabular files and UPDATE
// scripts for one mapping run, enforcing the write-once invariants: an
// Xref is written at most once, and an (object_type, object_id,
// xref_id) triple is written at most once.
package emit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

const (
	xrefFile                   = "xref.txt"
	objectXrefFile             = "object_xref.txt"
	identityXrefFile           = "identity_xref.txt"
	externalSynonymFile        = "external_synonym.txt"
	goXrefFile                 = "go_xref.txt"
	interproFile               = "interpro.txt"
	geneDescriptionFile        = "gene_description.txt"
	transcriptDisplaySQLFile   = "transcript_display_xref.sql"
	transcriptDisplayTXTFile   = "transcript_display_xref.txt"
	geneDisplaySQLFile         = "gene_display_xref.sql"
	geneDisplayTXTFile         = "gene_display_xref.txt"
)

// Writer owns every output file for one run plus the write-once sets
// guarding duplicate emission.
type Writer struct {
	dir string

	xref             *bufio.Writer
	objectXref       *bufio.Writer
	identityXref     *bufio.Writer
	externalSynonym  *bufio.Writer
	goXref           *bufio.Writer
	interpro         *bufio.Writer
	geneDescription  *bufio.Writer
	transcriptSQL    *bufio.Writer
	transcriptTXT    *bufio.Writer
	geneSQL          *bufio.Writer
	geneTXT          *bufio.Writer

	closers []*os.File

	xrefsWritten       map[int]bool
	objectXrefsWritten map[objectXrefKey]bool

	propagationEdges []propagationEdge

	stats Stats
}

type objectXrefKey struct {
	objectType string
	objectID   int
	xrefID     int
}

// Stats is a short end-of-run summary, logged by the caller with
// plain log.Printf.
type Stats struct {
	Xrefs               int
	ObjectXrefs         int
	IdentityXrefs       int
	Synonyms            int
	GoXrefs             int
	InterproRows        int
	GeneDescriptions    int
	TranscriptDisplays  int
	GeneDisplays        int
}

// New creates (or truncates) every output file under dir.
func New(dir string) (*Writer, error) {
	w := &Writer{
		dir:                dir,
		xrefsWritten:       make(map[int]bool),
		objectXrefsWritten: make(map[objectXrefKey]bool),
	}

	open := func(name string) (*bufio.Writer, error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("emit: creating %s: %w", name, err)
		}
		w.closers = append(w.closers, f)
		return bufio.NewWriter(f), nil
	}

	var err error
	if w.xref, err = open(xrefFile); err != nil {
		return nil, err
	}
	if w.objectXref, err = open(objectXrefFile); err != nil {
		return nil, err
	}
	if w.identityXref, err = open(identityXrefFile); err != nil {
		return nil, err
	}
	if w.externalSynonym, err = open(externalSynonymFile); err != nil {
		return nil, err
	}
	if w.goXref, err = open(goXrefFile); err != nil {
		return nil, err
	}
	if w.interpro, err = open(interproFile); err != nil {
		return nil, err
	}
	if w.geneDescription, err = open(geneDescriptionFile); err != nil {
		return nil, err
	}
	if w.transcriptSQL, err = open(transcriptDisplaySQLFile); err != nil {
		return nil, err
	}
	if w.transcriptTXT, err = open(transcriptDisplayTXTFile); err != nil {
		return nil, err
	}
	if w.geneSQL, err = open(geneDisplaySQLFile); err != nil {
		return nil, err
	}
	if w.geneTXT, err = open(geneDisplayTXTFile); err != nil {
		return nil, err
	}
	return w, nil
}

// Close flushes and closes every output file. An I/O failure here is
// fatal to the run.
func (w *Writer) Close() error {
	writers := []*bufio.Writer{
		w.xref, w.objectXref, w.identityXref, w.externalSynonym,
		w.goXref, w.interpro, w.geneDescription,
		w.transcriptSQL, w.transcriptTXT, w.geneSQL, w.geneTXT,
	}
	for _, bw := range writers {
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("emit: flush: %w", err)
		}
	}
	for _, f := range w.closers {
		if err := f.Close(); err != nil {
			return fmt.Errorf("emit: close: %w", err)
		}
	}
	return nil
}

// Stats returns the running per-file row counts.
func (w *Writer) Stats() Stats { return w.stats }

// XrefRow is one row of xref.txt.
type XrefRow struct {
	XrefID       int
	ExternalDBID int
	Accession    string
	Label        string
	Version      int
	Description  string
	Dependent    bool
}

// WriteXref writes row unless its XrefID has already been emitted.
// Returns whether the row was newly written.
func (w *Writer) WriteXref(row XrefRow) (bool, error) {
	if w.xrefsWritten[row.XrefID] {
		return false, nil
	}
	w.xrefsWritten[row.XrefID] = true

	fields := []string{
		itoa(row.XrefID), itoa(row.ExternalDBID), row.Accession,
		row.Label, itoa(row.Version), row.Description,
	}
	if row.Dependent {
		fields = append(fields, "DEPENDENT")
	}
	if err := writeTSV(w.xref, fields); err != nil {
		return false, err
	}
	w.stats.Xrefs++
	return true, nil
}

// HasXref reports whether xref id has already been emitted.
func (w *Writer) HasXref(id int) bool { return w.xrefsWritten[id] }

// ObjectXrefRow is one row of object_xref.txt.
type ObjectXrefRow struct {
	ObjectXrefID int
	ObjectID     int
	ObjectType   string
	XrefID       int
	Dependent    bool
}

// WriteObjectXref writes row unless the (object_type, object_id,
// xref_id) triple has already been emitted. Returns whether
// the row was newly written.
func (w *Writer) WriteObjectXref(row ObjectXrefRow) (bool, error) {
	key := objectXrefKey{objectType: row.ObjectType, objectID: row.ObjectID, xrefID: row.XrefID}
	if w.objectXrefsWritten[key] {
		return false, nil
	}
	w.objectXrefsWritten[key] = true

	fields := []string{
		itoa(row.ObjectXrefID), itoa(row.ObjectID), row.ObjectType, itoa(row.XrefID),
	}
	if row.Dependent {
		fields = append(fields, "DEPENDENT")
	}
	if err := writeTSV(w.objectXref, fields); err != nil {
		return false, err
	}
	w.stats.ObjectXrefs++
	return true, nil
}

// HasObjectXref reports whether the given triple has already been
// emitted.
func (w *Writer) HasObjectXref(objectType string, objectID, xrefID int) bool {
	return w.objectXrefsWritten[objectXrefKey{objectType: objectType, objectID: objectID, xrefID: xrefID}]
}

// IdentityXrefRow is one row of identity_xref.txt.
type IdentityXrefRow struct {
	ObjectXrefID   int
	QueryIdentity  int
	TargetIdentity int
	QueryStart     int
	QueryEnd       int
	TargetStart    int
	TargetEnd      int
	CigarLine      string
	Score          float64
	HasEValue      bool
	EValue         float64
	AnalysisID     int
}

// WriteIdentity writes one identity_xref row. evalue is unknown for
// every record this pipeline produces, so HasEValue is
// normally false and the SQL-null literal \N is written.
func (w *Writer) WriteIdentity(row IdentityXrefRow) error {
	evalue := `\N`
	if row.HasEValue {
		evalue = ftoa(row.EValue)
	}
	fields := []string{
		itoa(row.ObjectXrefID), itoa(row.QueryIdentity), itoa(row.TargetIdentity),
		itoa(row.QueryStart), itoa(row.QueryEnd), itoa(row.TargetStart), itoa(row.TargetEnd),
		row.CigarLine, ftoa(row.Score), evalue, itoa(row.AnalysisID),
	}
	if err := writeTSV(w.identityXref, fields); err != nil {
		return err
	}
	w.stats.IdentityXrefs++
	return nil
}

// WriteSynonym writes one external_synonym row.
func (w *Writer) WriteSynonym(xrefID int, synonym string) error {
	if err := writeTSV(w.externalSynonym, []string{itoa(xrefID), synonym}); err != nil {
		return err
	}
	w.stats.Synonyms++
	return nil
}

// WriteGo writes one go_xref row for a dependent xref sourced from
// GO.
func (w *Writer) WriteGo(objectXrefID int, linkageAnnotation string) error {
	if err := writeTSV(w.goXref, []string{itoa(objectXrefID), linkageAnnotation}); err != nil {
		return err
	}
	w.stats.GoXrefs++
	return nil
}

// WriteInterpro writes one interpro↔pfam pass-through row.
func (w *Writer) WriteInterpro(interproAcc, pfamAcc string) error {
	if err := writeTSV(w.interpro, []string{interproAcc, pfamAcc}); err != nil {
		return err
	}
	w.stats.InterproRows++
	return nil
}

// WriteGeneDescription writes one gene_description row.
func (w *Writer) WriteGeneDescription(geneID int, description string) error {
	if err := writeTSV(w.geneDescription, []string{itoa(geneID), description}); err != nil {
		return err
	}
	w.stats.GeneDescriptions++
	return nil
}

// WriteTranscriptDisplay writes both the .sql and .txt rows for a
// transcript's chosen display xref.
func (w *Writer) WriteTranscriptDisplay(transcriptID, xrefID int) error {
	if _, err := fmt.Fprintf(w.transcriptSQL, "UPDATE transcript SET display_xref_id = %d WHERE transcript_id = %d;\n", xrefID, transcriptID); err != nil {
		return err
	}
	if err := writeTSV(w.transcriptTXT, []string{itoa(xrefID), itoa(transcriptID)}); err != nil {
		return err
	}
	w.stats.TranscriptDisplays++
	return nil
}

// WriteGeneDisplay writes both the .sql and .txt rows for a gene's
// chosen display xref.
func (w *Writer) WriteGeneDisplay(geneID, xrefID int) error {
	if _, err := fmt.Fprintf(w.geneSQL, "UPDATE gene SET display_xref_id = %d WHERE gene_id = %d;\n", xrefID, geneID); err != nil {
		return err
	}
	if err := writeTSV(w.geneTXT, []string{itoa(xrefID), itoa(geneID)}); err != nil {
		return err
	}
	w.stats.GeneDisplays++
	return nil
}
