package sanitize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guardRaw(t *testing.T, raw string, patterns []ForbiddenPattern) []Diagnostic {
	t.Helper()
	lines, _ := Classify(raw)
	lines = AssignDepths(lines)
	return Guard(lines, patterns)
}

func TestGuardDefaultPatterns(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantCode string
	}{
		{"path literal csv", "data = load_table('data.csv')", ReasonFileRead},
		{"path literal xlsx", `wb = loader("report.xlsx")`, ReasonFileRead},
		{"pandas read_csv", "df = pd.read_csv('x.csv')", ReasonFileRead},
		{"pandas read_excel", "df = pd.read_excel(src)", ReasonFileRead},
		{"to_csv", "df.to_csv('out.csv')", ReasonFileRead}, // path literal wins first
		{"open call", "f = open('notes.txt')", ReasonFileRead},
		{"open without literal", "f = open(path)", ReasonFileHandle},
		{"requests get", "r = requests.get(url)", ReasonNetwork},
		{"urlopen", "r = urlopen(url)", ReasonNetwork},
		{"raw socket", "s = socket.socket()", ReasonNetwork},
		{"sqlite connect", "conn = sqlite3.connect('app.db')", ReasonFileRead}, // .db literal
		{"sqlite connect memory", "conn = sqlite3.connect(target)", ReasonDatabase},
		{"sqlalchemy engine", "e = create_engine(url)", ReasonDatabase},
	}
	patterns := DefaultForbiddenPatterns()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := guardRaw(t, tt.line, patterns)
			require.Len(t, diags, 1)
			assert.Equal(t, SeverityRejected, diags[0].Severity)
			assert.Equal(t, tt.wantCode, diags[0].Code)
			assert.Equal(t, 0, diags[0].Line)
		})
	}
}

func TestGuardCleanCode(t *testing.T) {
	raw := "from sklearn.datasets import load_iris\n" +
		"data = load_iris()\n" +
		"X = data.data\n" +
		"print(X.shape)"
	diags := guardRaw(t, raw, DefaultForbiddenPatterns())
	assert.Empty(t, diags)
}

func TestGuardOneDiagnosticPerLine(t *testing.T) {
	// Matches both path-literal-load and pandas-reader; only the first
	// pattern fires.
	diags := guardRaw(t, "df = pd.read_csv('data.csv')", DefaultForbiddenPatterns())
	require.Len(t, diags, 1)
}

func TestGuardSkipsCommentsAndDeclarations(t *testing.T) {
	raw := "# df = pd.read_csv('data.csv')\nimport socket"
	diags := guardRaw(t, raw, DefaultForbiddenPatterns())
	assert.Empty(t, diags)
}

func TestGuardScansBlockHeaders(t *testing.T) {
	diags := guardRaw(t, "with open('f.txt') as f:", DefaultForbiddenPatterns())
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityRejected, diags[0].Severity)
}

func TestNewForbiddenPatternRejectsBadRegexp(t *testing.T) {
	_, err := NewForbiddenPattern("broken", "([", "X", "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLoadForbiddenPatterns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := `patterns:
  - name: subprocess
    signature: '\bsubprocess\.'
    reason: FORBIDDEN_SUBPROCESS
    message: spawns a subprocess
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	patterns, err := LoadForbiddenPatterns(path)
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	diags := guardRaw(t, "subprocess.run(['ls'])", patterns)
	require.Len(t, diags, 1)
	assert.Equal(t, "FORBIDDEN_SUBPROCESS", diags[0].Code)
}

func TestLoadForbiddenPatternsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patterns: []\n"), 0644))
	_, err := LoadForbiddenPatterns(path)
	assert.Error(t, err)
}
