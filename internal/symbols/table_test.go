package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCopiesInput(t *testing.T) {
	entries := map[string]string{"np": "import numpy as np"}
	tbl := New(entries)
	entries["np"] = "changed"

	decl, ok := tbl.Lookup("np")
	require.True(t, ok)
	assert.Equal(t, "import numpy as np", decl)
}

func TestBuiltinCoversCommonAliases(t *testing.T) {
	tbl := Builtin()
	tests := []struct {
		id   string
		want string
	}{
		{"np", "import numpy as np"},
		{"pd", "import pandas as pd"},
		{"plt", "import matplotlib.pyplot as plt"},
		{"train_test_split", "from sklearn.model_selection import train_test_split"},
		{"load_iris", "from sklearn.datasets import load_iris"},
		{"KMeans", "from sklearn.cluster import KMeans"},
		{"math", "import math"},
		{"Counter", "from collections import Counter"},
	}
	for _, tt := range tests {
		decl, ok := tbl.Lookup(tt.id)
		require.True(t, ok, "missing %s", tt.id)
		assert.Equal(t, tt.want, decl)
	}

	_, ok := tbl.Lookup("definitely_not_registered")
	assert.False(t, ok)
}

func TestLoadFileMergesOverBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	content := `entries:
  - identifier: Classifier
    declaration: from lib.models import Classifier
symbols:
  np: import numpy.typing as np
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tbl, err := LoadFile(path)
	require.NoError(t, err)

	decl, ok := tbl.Lookup("Classifier")
	require.True(t, ok)
	assert.Equal(t, "from lib.models import Classifier", decl)

	// File entries override builtins.
	decl, ok = tbl.Lookup("np")
	require.True(t, ok)
	assert.Equal(t, "import numpy.typing as np", decl)

	// Untouched builtins survive the merge.
	_, ok = tbl.Lookup("pd")
	assert.True(t, ok)
}

func TestLoadFileRejectsEmptyEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - identifier: x\n"), 0644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestProviderBuiltinOnly(t *testing.T) {
	p, err := NewProvider("")
	require.NoError(t, err)
	assert.Equal(t, Builtin().Len(), p.Table().Len())
}

func TestProviderReloadSwapsTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols:\n  a: import a\n"), 0644))

	p, err := NewProvider(path)
	require.NoError(t, err)
	before := p.Table()
	_, ok := before.Lookup("a")
	require.True(t, ok)
	_, ok = before.Lookup("b")
	require.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("symbols:\n  b: import b\n"), 0644))
	require.NoError(t, p.Reload())

	// The old snapshot is unchanged; the new table sees the edit.
	_, ok = before.Lookup("b")
	assert.False(t, ok)
	_, ok = p.Table().Lookup("b")
	assert.True(t, ok)
}

func TestProviderReloadFailureKeepsTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols:\n  a: import a\n"), 0644))

	p, err := NewProvider(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	assert.Error(t, p.Reload())
	_, ok := p.Table().Lookup("a")
	assert.True(t, ok, "previous table must survive a failed reload")
}

func TestIdentifiersSorted(t *testing.T) {
	tbl := New(map[string]string{"b": "import b", "a": "import a", "c": "import c"})
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Identifiers())
	assert.Equal(t, 3, tbl.Len())
}
