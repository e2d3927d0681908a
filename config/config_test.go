// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKnownSpecies(t *testing.T) {
	sp, err := Load("danio_rerio", "")
	require.NoError(t, err)
	assert.Equal(t, "danio_rerio", sp.Name)
	assert.Equal(t, "ZFIN_ID", sp.Consortium)
	assert.NotEmpty(t, sp.Rules)
}

func TestLoadUnknownSpeciesIsFatal(t *testing.T) {
	_, err := Load("no_such_species", "")
	require.Error(t, err)
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "species", missing.Kind)
	assert.Contains(t, missing.Valid, "danio_rerio")
}

func TestLoadWithYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte("consortium: OVERRIDDEN_ID\nmax_dump: 50\n"), 0o644))

	sp, err := Load("danio_rerio", path)
	require.NoError(t, err)
	assert.Equal(t, "OVERRIDDEN_ID", sp.Consortium)
	assert.Equal(t, 50, sp.MaxDump)
	assert.NotEmpty(t, sp.DisplaySources, "unset override fields must fall back to the compiled registry entry")
}

func TestLoadOverrideFileMissingIsError(t *testing.T) {
	_, err := Load("danio_rerio", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNamesIsSorted(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}
