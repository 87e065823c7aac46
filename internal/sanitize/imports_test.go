package sanitize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapTable is a test SymbolTable.
type mapTable map[string]string

func (m mapTable) Lookup(id string) (string, bool) {
	decl, ok := m[id]
	return decl, ok
}

func normalize(t *testing.T, raw string, table SymbolTable) ([]Line, []Diagnostic) {
	t.Helper()
	lines, _ := Classify(raw)
	lines = AssignDepths(lines)
	return NormalizeImports(lines, table)
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = ln.Text
	}
	return out
}

func TestNormalizeImportsHoistsNestedDeclarations(t *testing.T) {
	raw := "from a import make_x\ndef g():\nfrom a import make_y\nx = make_x()\ny = make_y()"
	lines, diags := normalize(t, raw, mapTable{})
	assert.Empty(t, diags)
	want := []string{
		"from a import make_x",
		"from a import make_y",
		"def g():",
		"x = make_x()",
		"y = make_y()",
	}
	if diff := cmp.Diff(want, texts(lines)); diff != "" {
		t.Errorf("line order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, lines[0].Depth)
	assert.Equal(t, 0, lines[1].Depth)
}

func TestNormalizeImportsDeduplicates(t *testing.T) {
	raw := "import os\nimport os\nprint(os.getcwd())"
	lines, _ := normalize(t, raw, mapTable{})
	assert.Equal(t, []string{"import os", "print(os.getcwd())"}, texts(lines))
}

func TestNormalizeImportsPreservesRelativeOrder(t *testing.T) {
	raw := "import zlib\nimport abc\nx = 1"
	lines, _ := normalize(t, raw, mapTable{})
	assert.Equal(t, []string{"import zlib", "import abc", "x = 1"}, texts(lines))
}

func TestNormalizeImportsSynthesizesFromTable(t *testing.T) {
	table := mapTable{"Classifier": "from lib.models import Classifier"}
	raw := "model = Classifier()\nmodel.fit(X, y)"
	lines, diags := normalize(t, raw, table)
	assert.Empty(t, diags)
	want := []string{
		"from lib.models import Classifier",
		"model = Classifier()",
		"model.fit(X, y)",
	}
	assert.Equal(t, want, texts(lines))
}

func TestNormalizeImportsSynthesisOrderedByFirstReference(t *testing.T) {
	table := mapTable{
		"np": "import numpy as np",
		"pd": "import pandas as pd",
	}
	raw := "df = pd.DataFrame(x)\narr = np.array(df)"
	lines, _ := normalize(t, raw, table)
	assert.Equal(t, []string{
		"import pandas as pd",
		"import numpy as np",
		"df = pd.DataFrame(x)",
		"arr = np.array(df)",
	}, texts(lines))
}

func TestNormalizeImportsNoSynthesisWhenAlreadyDeclared(t *testing.T) {
	table := mapTable{"np": "import numpy as np"}
	raw := "import numpy as np\narr = np.zeros(3)"
	lines, _ := normalize(t, raw, table)
	assert.Equal(t, []string{"import numpy as np", "arr = np.zeros(3)"}, texts(lines))
}

func TestNormalizeImportsNoSynthesisForBoundNames(t *testing.T) {
	table := mapTable{"np": "import numpy as np"}
	raw := "np = build()\nprint(np)"
	lines, _ := normalize(t, raw, table)
	assert.Equal(t, []string{"np = build()", "print(np)"}, texts(lines))
}

func TestNormalizeImportsWarnsOnUnknownAttrRoot(t *testing.T) {
	raw := "result = mystery.compute(1)"
	_, diags := normalize(t, raw, mapTable{})
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, CodeMissingDeclaration, diags[0].Code)
	assert.Contains(t, diags[0].Message, "mystery")
}

func TestNormalizeImportsWarnsOnCapitalizedCall(t *testing.T) {
	raw := "m = Regressor()"
	_, diags := normalize(t, raw, mapTable{})
	require.Len(t, diags, 1)
	assert.Equal(t, CodeMissingDeclaration, diags[0].Code)
}

func TestNormalizeImportsNoWarningForLocals(t *testing.T) {
	raw := "total = 0\nfor n in values:\ntotal = total + n"
	_, diags := normalize(t, raw, mapTable{})
	// values is lowercase and not called or dotted, so it stays quiet.
	assert.Empty(t, diags)
}

func TestNormalizeImportsSkipsStrings(t *testing.T) {
	table := mapTable{"np": "import numpy as np"}
	raw := `print("np is an alias")`
	lines, _ := normalize(t, raw, table)
	assert.Equal(t, []string{`print("np is an alias")`}, texts(lines))
}

func TestDeclaredNames(t *testing.T) {
	tests := []struct {
		decl string
		want []string
	}{
		{"import numpy as np", []string{"np"}},
		{"import os", []string{"os"}},
		{"import os.path", []string{"os"}},
		{"from collections import Counter", []string{"Counter"}},
		{"from a import b, c as d", []string{"b", "d"}},
		{"from x import *", nil},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			assert.Equal(t, tt.want, declaredNames(tt.decl))
		})
	}
}
