// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlload

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ensembl-compara/xrefmap/coredb"
	"github.com/ensembl-compara/xrefmap/model"
)

// CoreDB reads the gene/transcript/translation snapshot and sequences
// for one species out of an Ensembl-schema core database, and builds a
// coredb.Mem from it.
func CoreDB(ctx context.Context, db *sql.DB, speciesID int) (*coredb.Mem, error) {
	m := &coredb.Mem{
		TranscriptsByGene:             make(map[int][]model.CoreObject),
		TranslationByTranscript:       make(map[int]model.CoreObject),
		TranscriptSeq:                 make(map[int]string),
		TranslationSeq:                make(map[int]string),
		StableToInternal:              make(map[model.ObjectType]map[string]int),
		TranscriptToTranslationStable: make(map[string]string),
		SpeciesIDs:                    make(map[string]int),
		SourceIDs:                     make(map[string]int),
		ExternalDBIDs:                 make(map[string]int),
	}
	for _, t := range []model.ObjectType{model.Gene, model.Transcript, model.Translation} {
		m.StableToInternal[t] = make(map[string]int)
	}

	genes, err := loadGenes(ctx, db, speciesID)
	if err != nil {
		return nil, err
	}
	m.GeneList = genes
	for _, g := range genes {
		m.StableToInternal[model.Gene][g.StableID] = g.InternalID
	}

	transcripts, err := loadTranscripts(ctx, db, speciesID)
	if err != nil {
		return nil, err
	}
	for _, t := range transcripts {
		m.TranscriptsByGene[t.GeneID] = append(m.TranscriptsByGene[t.GeneID], t)
		m.StableToInternal[model.Transcript][t.StableID] = t.InternalID
	}

	translations, err := loadTranslations(ctx, db, speciesID)
	if err != nil {
		return nil, err
	}
	transcriptStableByID := make(map[int]string, len(transcripts))
	for _, t := range transcripts {
		transcriptStableByID[t.InternalID] = t.StableID
	}
	for _, tr := range translations {
		m.TranslationByTranscript[tr.TranscriptID] = tr
		m.StableToInternal[model.Translation][tr.StableID] = tr.InternalID
		if ts, ok := transcriptStableByID[tr.TranscriptID]; ok {
			m.TranscriptToTranslationStable[ts] = tr.StableID
		}
	}

	if err := loadSequences(ctx, db, "transcript", m.TranscriptSeq); err != nil {
		return nil, err
	}
	if err := loadSequences(ctx, db, "translation", m.TranslationSeq); err != nil {
		return nil, err
	}

	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(object_xref_id), 0) FROM object_xref`).Scan(&m.MaxOXID); err != nil {
		return nil, fmt.Errorf("sqlload: querying max object_xref_id: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(xref_id), 0) FROM xref`).Scan(&m.MaxXID); err != nil {
		return nil, fmt.Errorf("sqlload: querying max xref_id: %w", err)
	}

	if err := loadNameIDMap(ctx, db, `SELECT name, species_id FROM species_name`, m.SpeciesIDs); err != nil {
		return nil, err
	}
	if err := loadNameIDMap(ctx, db, `SELECT name, source_id FROM source`, m.SourceIDs); err != nil {
		return nil, err
	}
	if err := loadNameIDMap(ctx, db, `SELECT name, external_db_id FROM external_db`, m.ExternalDBIDs); err != nil {
		return nil, err
	}

	return m, nil
}

func loadGenes(ctx context.Context, db *sql.DB, speciesID int) ([]model.CoreObject, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT gene_id, stable_id, seq_region_name, seq_region_start, seq_region_end
		FROM gene WHERE species_id = ?`, speciesID)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying gene: %w", err)
	}
	defer rows.Close()
	var out []model.CoreObject
	for rows.Next() {
		g := model.CoreObject{Type: model.Gene}
		if err := rows.Scan(&g.InternalID, &g.StableID, &g.SeqRegion, &g.Start, &g.End); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func loadTranscripts(ctx context.Context, db *sql.DB, speciesID int) ([]model.CoreObject, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.transcript_id, t.stable_id, t.gene_id, t.seq_region_name, t.seq_region_start, t.seq_region_end,
		       COALESCE(LENGTH(ts.seq), 0)
		FROM transcript t LEFT JOIN transcript_seq ts ON ts.transcript_id = t.transcript_id
		WHERE t.species_id = ?`, speciesID)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying transcript: %w", err)
	}
	defer rows.Close()
	var out []model.CoreObject
	for rows.Next() {
		t := model.CoreObject{Type: model.Transcript}
		if err := rows.Scan(&t.InternalID, &t.StableID, &t.GeneID, &t.SeqRegion, &t.Start, &t.End, &t.Length); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func loadTranslations(ctx context.Context, db *sql.DB, speciesID int) ([]model.CoreObject, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tl.translation_id, tl.stable_id, tl.transcript_id, LENGTH(tl.seq)
		FROM translation tl JOIN transcript t ON t.transcript_id = tl.transcript_id
		WHERE t.species_id = ?`, speciesID)
	if err != nil {
		return nil, fmt.Errorf("sqlload: querying translation: %w", err)
	}
	defer rows.Close()
	var out []model.CoreObject
	for rows.Next() {
		tr := model.CoreObject{Type: model.Translation}
		if err := rows.Scan(&tr.InternalID, &tr.StableID, &tr.TranscriptID, &tr.Length); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func loadSequences(ctx context.Context, db *sql.DB, table string, into map[int]string) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT %[1]s_id, seq FROM %[1]s_seq`, table))
	if err != nil {
		return fmt.Errorf("sqlload: querying %s_seq: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var seq string
		if err := rows.Scan(&id, &seq); err != nil {
			return err
		}
		into[id] = seq
	}
	return rows.Err()
}

func loadNameIDMap(ctx context.Context, db *sql.DB, query string, into map[string]int) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("sqlload: querying %q: %w", query, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var id int
		if err := rows.Scan(&name, &id); err != nil {
			return err
		}
		into[name] = id
	}
	return rows.Err()
}
