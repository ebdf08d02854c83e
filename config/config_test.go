// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, -1, cfg.Index)
	assert.Equal(t, phylotree.Standard, cfg.CodingValue())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phylotree.yaml")
	data := []byte("tag: states\ncoding: pdcovarion\nburnin: 100\nworkers: 4\ndatabase: trees.db\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Index, "unset keys keep their default")
	assert.Equal(t, "states", cfg.Tag)
	assert.Equal(t, phylotree.PDCovarion, cfg.CodingValue())
	assert.Equal(t, 100, cfg.Burnin)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "trees.db", cfg.Database)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"bad-yaml.yaml":   "tag: [unclosed\n",
		"bad-coding.yaml": "coding: binary\n",
		"bad-burnin.yaml": "burnin: -5\n",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		_, err := config.Load(path)
		assert.Error(t, err, name)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "phylotree.yaml")
	cfg := config.Default()
	cfg.Tag = "z"
	cfg.Coding = "covarion"
	cfg.Output = "combined.trees"
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
