package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRoles(t *testing.T) {
	tests := []struct {
		name string
		line string
		want LineRole
	}{
		{"blank", "", RoleCommentOrBlank},
		{"whitespace only", "   \t", RoleCommentOrBlank},
		{"comment", "# load the data", RoleCommentOrBlank},
		{"indented comment", "    # nested note", RoleCommentOrBlank},
		{"import", "import numpy as np", RoleModuleDeclaration},
		{"from import", "from sklearn.datasets import load_iris", RoleModuleDeclaration},
		{"indented import", "    import os", RoleModuleDeclaration},
		{"def header", "def train(model, data):", RoleBlockHeader},
		{"class header", "class Pipeline:", RoleBlockHeader},
		{"if header", "if x > 0:", RoleBlockHeader},
		{"elif header", "elif x < 0:", RoleBlockHeader},
		{"else header", "else:", RoleBlockHeader},
		{"for header", "for i in range(3):", RoleBlockHeader},
		{"while header", "while running:", RoleBlockHeader},
		{"try header", "try:", RoleBlockHeader},
		{"except header", "except ValueError:", RoleBlockHeader},
		{"finally header", "finally:", RoleBlockHeader},
		{"with header", "with ctx() as c:", RoleBlockHeader},
		{"assignment", "x = 1", RoleSimpleStatement},
		{"call", "print(x)", RoleSimpleStatement},
		{"keyword without colon", "for x in items", RoleSimpleStatement},
		{"keyword as identifier prefix", "formatted = f(x)", RoleSimpleStatement},
		{"definitely = assignment", "iffy = True", RoleSimpleStatement},
		{"dict literal ending in colon-ish", "d = {1: 2}", RoleSimpleStatement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, _ := Classify(tt.line)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.want, lines[0].Role, "line %q", tt.line)
		})
	}
}

func TestClassifyTrimsAndSplits(t *testing.T) {
	lines, diags := Classify("  x = 1\r\n\ty = 2\n")
	require.Len(t, lines, 3)
	assert.Empty(t, diags)
	assert.Equal(t, "x = 1", lines[0].Text)
	assert.Equal(t, "y = 2", lines[1].Text)
	assert.Equal(t, "", lines[2].Text)
	for _, ln := range lines {
		assert.Equal(t, DepthUnresolved, ln.Depth)
	}
}

func TestClassifyAmbiguousHeaderQuote(t *testing.T) {
	// A colon inside an unterminated string still classifies as a header,
	// but the ambiguity is surfaced as an Info diagnostic.
	lines, diags := Classify(`if x == "open:`)
	require.Len(t, lines, 1)
	assert.Equal(t, RoleBlockHeader, lines[0].Role)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityInfo, diags[0].Severity)
	assert.Equal(t, CodeStructuralAmbiguity, diags[0].Code)
	assert.Equal(t, 0, diags[0].Line)
}

func TestClassifyBalancedQuoteHeaderNotAmbiguous(t *testing.T) {
	_, diags := Classify(`if name == "end":`)
	assert.Empty(t, diags)
}
