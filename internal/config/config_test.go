// Copyright 2026 The Selva Authors
// This file is part of Selva.
//
// Selva is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Selva is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Selva. If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadReadsTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selva.toml")
	require.NoError(t, writeFile(path, `
[hierarchy]
compression_level = 9

[find]
indices_max = 4
indexing_threshold = 100
`))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9, cfg.Hierarchy.CompressionLevel)
	require.Equal(t, 4, cfg.Find.IndicesMax)
	require.Equal(t, 100.0, cfg.Find.IndexingThreshold)
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	t.Setenv("FIND_INDICES_MAX", "2")
	t.Setenv("HIERARCHY_COMPRESSION_LEVEL", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Find.IndicesMax)
	require.Equal(t, 1, cfg.Hierarchy.CompressionLevel)
}

func TestLoadRejectsInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("FIND_INDICES_MAX", "not-a-number")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidateRejectsOutOfRangeCompressionLevel(t *testing.T) {
	cfg := Default()
	cfg.Hierarchy.CompressionLevel = 42

	require.Error(t, cfg.Validate())
}

func TestFindIndicesMaxZeroDisablesIndexing(t *testing.T) {
	cfg := Default()
	cfg.Find.IndicesMax = 0

	require.Equal(t, 0, cfg.Find.AutoindexConfig().IndicesMax)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
