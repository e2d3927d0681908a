// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-sql-driver/mysql"
)

// defaultExternalDB is a minimal external_db seed loaded automatically
// when the target database's external_db table is empty, covering the
// source names description/display actually reference.
//
//go:embed external_db.txt
var defaultExternalDB []byte

// loadFile is one of the seven bulk-loadable tabular outputs and the
// core table it belongs in.
type loadFile struct {
	file  string
	table string
}

var loadFiles = []loadFile{
	{xrefFile, "xref"},
	{objectXrefFile, "object_xref"},
	{identityXrefFile, "identity_xref"},
	{externalSynonymFile, "external_synonym"},
	{goXrefFile, "go_xref"},
	{interproFile, "interpro"},
	{geneDescriptionFile, "gene_description"},
}

// sqlScripts are the UPDATE scripts emitted alongside the tabular files.
var sqlScripts = []string{transcriptDisplaySQLFile, geneDisplaySQLFile}

// Upload loads every output file in dir into the target MySQL database
// named by dsn, via the go-sql-driver/mysql driver's
// "LOAD DATA LOCAL INFILE ... IGNORE" bulk-load path, then
// executes the two display-xref UPDATE scripts, each as one
// multi-statement batch of its own.
// With truncate set, each destination table is truncated before its
// file is loaded.
//
// dsn must include "?multiStatements=true&allowAllFiles=true" (or the
// driver-equivalent DSN params) so the display-xref scripts and
// LOAD DATA statements are accepted; that is a caller/deployment
// concern, not something this function edits into the DSN itself.
func Upload(ctx context.Context, dsn string, dir string, truncate bool) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("emit: opening upload connection: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("emit: connecting for upload: %w", err)
	}

	if err := bootstrapExternalDB(ctx, db); err != nil {
		return err
	}

	for _, lf := range loadFiles {
		path := filepath.Join(dir, lf.file)
		if empty, err := isEmptyOrMissing(path); err != nil {
			return err
		} else if empty {
			continue
		}
		if truncate {
			if _, err := db.ExecContext(ctx, "TRUNCATE TABLE "+lf.table); err != nil {
				return fmt.Errorf("emit: truncating %s: %w", lf.table, err)
			}
		}
		stmt := fmt.Sprintf(
			"LOAD DATA LOCAL INFILE '%s' IGNORE INTO TABLE %s FIELDS TERMINATED BY '\\t' LINES TERMINATED BY '\\n'",
			path, lf.table)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("emit: loading %s into %s: %w", lf.file, lf.table, err)
		}
	}

	for _, name := range sqlScripts {
		path := filepath.Join(dir, name)
		b, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("emit: reading %s: %w", name, err)
		}
		if len(b) == 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("emit: executing %s: %w", name, err)
		}
	}
	return nil
}

// bootstrapExternalDB auto-populates an empty target external_db table
// from the packaged reference file before anything else is loaded,
// since every other load depends on external_db_id resolving
// correctly.
func bootstrapExternalDB(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM external_db").Scan(&count); err != nil {
		return fmt.Errorf("emit: counting external_db: %w", err)
	}
	if count > 0 {
		return nil
	}
	const handle = "xrefmap-external-db"
	mysql.RegisterReaderHandler(handle, func() io.Reader {
		return bytes.NewReader(defaultExternalDB)
	})
	defer mysql.DeregisterReaderHandler(handle)
	stmt := fmt.Sprintf(
		"LOAD DATA LOCAL INFILE 'Reader::%s' IGNORE INTO TABLE external_db FIELDS TERMINATED BY '\\t' LINES TERMINATED BY '\\n'",
		handle)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("emit: bootstrapping external_db: %w", err)
	}
	return nil
}

func isEmptyOrMissing(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return fi.Size() == 0, nil
}
