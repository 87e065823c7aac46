// Package symbols holds the static identifier-to-declaration mapping used
// by the import normalizer. A Table is built once, is immutable afterwards,
// and is shared read-only across concurrent pipeline runs; reloading swaps
// in a fully built replacement through a Provider, so no reader ever sees a
// partially populated table.
package symbols

import (
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Entry is one identifier with its canonical declaring statement.
type Entry struct {
	Identifier  string `yaml:"identifier"`
	Declaration string `yaml:"declaration"`
}

// Table maps bare identifiers to canonical declarations. Immutable after
// construction.
type Table struct {
	entries map[string]string
}

// New builds a table from entries. Later entries win on duplicate
// identifiers (last-registered wins); the input map is copied.
func New(entries map[string]string) *Table {
	m := make(map[string]string, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return &Table{entries: m}
}

// Lookup returns the canonical declaration for an identifier.
func (t *Table) Lookup(identifier string) (string, bool) {
	decl, ok := t.entries[identifier]
	return decl, ok
}

// Len returns the number of identifiers in the table.
func (t *Table) Len() int { return len(t.entries) }

// Identifiers returns the table's keys in sorted order, for status output.
func (t *Table) Identifiers() []string {
	ids := make([]string, 0, len(t.entries))
	for k := range t.entries {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}

// Builtin returns the default table covering the libraries the tutoring
// prompts steer generated examples toward: numpy/pandas/matplotlib aliases,
// the safe sklearn surface (built-in datasets and common estimators), and
// the standard-library modules lessons lean on.
func Builtin() *Table {
	return New(map[string]string{
		// Third-party aliases.
		"np":  "import numpy as np",
		"pd":  "import pandas as pd",
		"plt": "import matplotlib.pyplot as plt",
		"sns": "import seaborn as sns",

		// sklearn: full paths only; "from sklearn import datasets" style
		// shortcuts are exactly what the generator gets wrong.
		"load_iris":                  "from sklearn.datasets import load_iris",
		"load_digits":                "from sklearn.datasets import load_digits",
		"load_wine":                  "from sklearn.datasets import load_wine",
		"make_classification":        "from sklearn.datasets import make_classification",
		"make_regression":            "from sklearn.datasets import make_regression",
		"make_blobs":                 "from sklearn.datasets import make_blobs",
		"train_test_split":           "from sklearn.model_selection import train_test_split",
		"cross_val_score":            "from sklearn.model_selection import cross_val_score",
		"GridSearchCV":               "from sklearn.model_selection import GridSearchCV",
		"RandomForestClassifier":     "from sklearn.ensemble import RandomForestClassifier",
		"RandomForestRegressor":      "from sklearn.ensemble import RandomForestRegressor",
		"GradientBoostingClassifier": "from sklearn.ensemble import GradientBoostingClassifier",
		"LinearRegression":           "from sklearn.linear_model import LinearRegression",
		"LogisticRegression":         "from sklearn.linear_model import LogisticRegression",
		"DecisionTreeClassifier":     "from sklearn.tree import DecisionTreeClassifier",
		"KNeighborsClassifier":       "from sklearn.neighbors import KNeighborsClassifier",
		"StandardScaler":             "from sklearn.preprocessing import StandardScaler",
		"MinMaxScaler":               "from sklearn.preprocessing import MinMaxScaler",
		"accuracy_score":             "from sklearn.metrics import accuracy_score",
		"mean_squared_error":         "from sklearn.metrics import mean_squared_error",
		"r2_score":                   "from sklearn.metrics import r2_score",
		"confusion_matrix":           "from sklearn.metrics import confusion_matrix",
		"classification_report":      "from sklearn.metrics import classification_report",
		"KMeans":                     "from sklearn.cluster import KMeans",
		"DBSCAN":                     "from sklearn.cluster import DBSCAN",
		"PCA":                        "from sklearn.decomposition import PCA",

		// Standard library.
		"math":        "import math",
		"random":      "import random",
		"datetime":    "import datetime",
		"json":        "import json",
		"itertools":   "import itertools",
		"collections": "import collections",
		"Counter":     "from collections import Counter",
		"defaultdict": "from collections import defaultdict",
		"namedtuple":  "from collections import namedtuple",
		"dataclass":   "from dataclasses import dataclass",
		"reduce":      "from functools import reduce",
	})
}

// tableFile is the YAML shape of a symbol table source file. Both the list
// form (entries) and the compact map form (symbols) are accepted.
type tableFile struct {
	Entries []Entry           `yaml:"entries"`
	Symbols map[string]string `yaml:"symbols"`
}

// LoadFile reads a symbol table from a YAML file. Entries extend the
// builtin table; a file entry for an existing identifier overrides it.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbol table: %w", err)
	}
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse symbol table: %w", err)
	}

	merged := Builtin().entries
	for _, e := range tf.Entries {
		if e.Identifier == "" || e.Declaration == "" {
			return nil, fmt.Errorf("symbol table %s: entry with empty identifier or declaration", path)
		}
		merged[e.Identifier] = e.Declaration
	}
	for id, decl := range tf.Symbols {
		merged[id] = decl
	}
	return &Table{entries: merged}, nil
}

// Provider hands out the current table and supports a serialized reload:
// the replacement is fully built before a single atomic swap, so concurrent
// readers observe either the old or the new table, never a mix.
type Provider struct {
	path    string
	current atomic.Pointer[Table]
}

// NewProvider loads the initial table. An empty path means builtin-only.
func NewProvider(path string) (*Provider, error) {
	p := &Provider{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Table returns the current immutable table.
func (p *Provider) Table() *Table {
	return p.current.Load()
}

// Reload rebuilds the table from the source path and swaps it in.
func (p *Provider) Reload() error {
	if p.path == "" {
		p.current.Store(Builtin())
		return nil
	}
	t, err := LoadFile(p.path)
	if err != nil {
		return err
	}
	p.current.Store(t)
	return nil
}

// Path returns the configured source path ("" for builtin-only).
func (p *Provider) Path() string { return p.path }
