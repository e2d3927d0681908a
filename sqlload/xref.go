// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlload populates the pipeline's in-memory xrefdb.Mem and
// coredb.Mem snapshots from a MySQL-backed Ensembl xref and core
// database, using database/sql and the go-sql-driver/mysql driver. It
// is the one place raw SQL appears: xrefdb.Store and coredb.Store
// themselves stay free of any database detail, so every
// other package keeps working unmodified against a Mem built from Go
// literals in tests and a Mem built here in production.
package sqlload

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ensembl-compara/xrefmap/model"
	"github.com/ensembl-compara/xrefmap/xrefdb"
)

// Open opens a MySQL connection using the go-sql-driver/mysql DSN
// format (e.g. "user:pass@tcp(host:3306)/xref_db").
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlload: opening %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlload: connecting: %w", err)
	}
	return db, nil
}

// XrefDB reads the full xref-store snapshot for one species id out of
// an Ensembl-schema xref database, and builds an xrefdb.Mem from it.
func XrefDB(ctx context.Context, db *sql.DB, speciesID int) (*xrefdb.Mem, error) {
	sources, err := loadSources(ctx, db, speciesID)
	if err != nil {
		return nil, err
	}
	primary, err := loadPrimaryXrefs(ctx, db, speciesID)
	if err != nil {
		return nil, err
	}
	extra, err := loadXrefs(ctx, db, speciesID)
	if err != nil {
		return nil, err
	}
	deps, err := loadDependents(ctx, db)
	if err != nil {
		return nil, err
	}
	directs, err := loadDirects(ctx, db)
	if err != nil {
		return nil, err
	}
	syn, err := loadSynonyms(ctx, db)
	if err != nil {
		return nil, err
	}
	interpro, err := loadInterpro(ctx, db)
	if err != nil {
		return nil, err
	}
	return xrefdb.NewMem(sources, primary, extra, deps, directs, syn, interpro), nil
}

func loadSources(ctx context.Context, db *sql.DB, speciesID int) ([]model.Source, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT source_id, name, species_id, COALESCE(external_db_id, 0)
		FROM source WHERE species_id = ?`, speciesID)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying source: %w", err)
	}
	defer rows.Close()
	var out []model.Source
	for rows.Next() {
		var s model.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.SpeciesID, &s.ExternalDBID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func loadPrimaryXrefs(ctx context.Context, db *sql.DB, speciesID int) ([]model.PrimaryXref, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT x.xref_id, x.accession, x.version, x.label, x.description, x.source_id, x.species_id,
		       p.sequence_type, p.sequence
		FROM primary_xref p JOIN xref x ON x.xref_id = p.xref_id
		WHERE x.species_id = ?`, speciesID)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying primary_xref: %w", err)
	}
	defer rows.Close()
	var out []model.PrimaryXref
	for rows.Next() {
		var p model.PrimaryXref
		var seqType string
		if err := rows.Scan(&p.ID, &p.Accession, &p.Version, &p.Label, &p.Description, &p.SourceID, &p.SpeciesID, &seqType, &p.Sequence); err != nil {
			return nil, err
		}
		if seqType == "peptide" {
			p.SequenceType = model.Peptide
		} else {
			p.SequenceType = model.DNA
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func loadXrefs(ctx context.Context, db *sql.DB, speciesID int) ([]model.Xref, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT xref_id, accession, version, label, description, source_id, species_id
		FROM xref WHERE species_id = ?
		AND xref_id NOT IN (SELECT xref_id FROM primary_xref)`, speciesID)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying xref: %w", err)
	}
	defer rows.Close()
	var out []model.Xref
	for rows.Next() {
		var x model.Xref
		if err := rows.Scan(&x.ID, &x.Accession, &x.Version, &x.Label, &x.Description, &x.SourceID, &x.SpeciesID); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func loadDependents(ctx context.Context, db *sql.DB) ([]model.DependentXref, error) {
	rows, err := db.QueryContext(ctx, `SELECT master_xref_id, dependent_xref_id, linkage_annotation FROM dependent_xref`)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying dependent_xref: %w", err)
	}
	defer rows.Close()
	var out []model.DependentXref
	for rows.Next() {
		var d model.DependentXref
		if err := rows.Scan(&d.MasterXrefID, &d.DependentXrefID, &d.LinkageAnnot); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func loadDirects(ctx context.Context, db *sql.DB) ([]model.DirectXref, error) {
	rows, err := db.QueryContext(ctx, `SELECT general_xref_id, ensembl_stable_id, ensembl_object_type, linkage_xref_id FROM direct_xref`)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying direct_xref: %w", err)
	}
	defer rows.Close()
	var out []model.DirectXref
	for rows.Next() {
		var d model.DirectXref
		var objType string
		if err := rows.Scan(&d.XrefID, &d.EnsemblStableID, &objType, &d.LinkageXrefID); err != nil {
			return nil, err
		}
		d.ObjectType = parseObjectType(objType)
		out = append(out, d)
	}
	return out, rows.Err()
}

func loadSynonyms(ctx context.Context, db *sql.DB) ([]model.Synonym, error) {
	rows, err := db.QueryContext(ctx, `SELECT xref_id, synonym FROM synonym`)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying synonym: %w", err)
	}
	defer rows.Close()
	var out []model.Synonym
	for rows.Next() {
		var s model.Synonym
		if err := rows.Scan(&s.XrefID, &s.Synonym); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func loadInterpro(ctx context.Context, db *sql.DB) ([]model.Interpro, error) {
	rows, err := db.QueryContext(ctx, `SELECT interpro, pfam FROM interpro`)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying interpro: %w", err)
	}
	defer rows.Close()
	var out []model.Interpro
	for rows.Next() {
		var r model.Interpro
		if err := rows.Scan(&r.InterproAccession, &r.PfamAccession); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func parseObjectType(s string) model.ObjectType {
	switch s {
	case "Transcript":
		return model.Transcript
	case "Translation":
		return model.Translation
	default:
		return model.Gene
	}
}
