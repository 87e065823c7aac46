package sanitize

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Forbidden-operation reason codes.
const (
	ReasonFileRead   = "FORBIDDEN_FILE_READ"
	ReasonFileWrite  = "FORBIDDEN_FILE_WRITE"
	ReasonFileHandle = "FORBIDDEN_FILE_HANDLE"
	ReasonNetwork    = "FORBIDDEN_NETWORK"
	ReasonDatabase   = "FORBIDDEN_DATABASE"
)

// ForbiddenPattern matches code that assumes an external resource which
// will not exist at run time. Matches are never repaired: repair is
// undefined for this class of error, so the result is rejected and the
// caller regenerates.
type ForbiddenPattern struct {
	Name       string
	ReasonCode string
	Message    string
	signature  *regexp.Regexp
}

// NewForbiddenPattern compiles a pattern. The signature is a Go regexp
// applied to trimmed statement/header text.
func NewForbiddenPattern(name, signature, reasonCode, message string) (ForbiddenPattern, error) {
	re, err := regexp.Compile(signature)
	if err != nil {
		return ForbiddenPattern{}, fmt.Errorf("pattern %q: %w", name, err)
	}
	return ForbiddenPattern{Name: name, ReasonCode: reasonCode, Message: message, signature: re}, nil
}

// DefaultForbiddenPatterns covers the external-resource classes the
// tutoring examples must never depend on: path-literal loads, raw file
// handles, network calls, and database connections.
func DefaultForbiddenPatterns() []ForbiddenPattern {
	return []ForbiddenPattern{
		{
			Name:       "path-literal-load",
			ReasonCode: ReasonFileRead,
			Message:    "passes a path-like literal to a load/save call; the file will not exist at run time",
			signature:  regexp.MustCompile(`\w+\s*\(\s*["'][^"']*\.(csv|tsv|xlsx|xls|json|txt|parquet|h5|pkl|db|sqlite)["']`),
		},
		{
			Name:       "pandas-reader",
			ReasonCode: ReasonFileRead,
			Message:    "reads a dataset from an external source",
			signature:  regexp.MustCompile(`\bread_(csv|excel|json|table|parquet|pickle|hdf|feather|sql\w*)\s*\(`),
		},
		{
			Name:       "file-writer",
			ReasonCode: ReasonFileWrite,
			Message:    "writes a dataset to an external file",
			signature:  regexp.MustCompile(`\bto_(csv|excel|json|parquet|pickle|sql)\s*\(`),
		},
		{
			Name:       "file-handle",
			ReasonCode: ReasonFileHandle,
			Message:    "acquires a file handle directly",
			signature:  regexp.MustCompile(`\bopen\s*\(`),
		},
		{
			Name:       "http-client",
			ReasonCode: ReasonNetwork,
			Message:    "performs a network request",
			signature:  regexp.MustCompile(`\b(requests|httpx)\s*\.\s*(get|post|put|delete|head|request)\s*\(|\burlopen\s*\(`),
		},
		{
			Name:       "raw-socket",
			ReasonCode: ReasonNetwork,
			Message:    "opens a raw network socket",
			signature:  regexp.MustCompile(`\bsocket\s*\.\s*socket\s*\(`),
		},
		{
			Name:       "db-connect",
			ReasonCode: ReasonDatabase,
			Message:    "connects to a database",
			signature:  regexp.MustCompile(`\b(sqlite3|psycopg2|pymysql|mysql|pyodbc)\s*\.\s*connect\s*\(|\bcreate_engine\s*\(`),
		},
	}
}

// patternFile is the YAML shape of a forbidden-pattern set file.
type patternFile struct {
	Patterns []struct {
		Name      string `yaml:"name"`
		Signature string `yaml:"signature"`
		Reason    string `yaml:"reason"`
		Message   string `yaml:"message"`
	} `yaml:"patterns"`
}

// LoadForbiddenPatterns reads a pattern set from a YAML file. The returned
// set replaces the defaults; loading happens once at startup (or through
// the serialized reload step), never mid-request.
func LoadForbiddenPatterns(path string) ([]ForbiddenPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern set: %w", err)
	}
	var pf patternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pattern set: %w", err)
	}
	patterns := make([]ForbiddenPattern, 0, len(pf.Patterns))
	for _, raw := range pf.Patterns {
		p, err := NewForbiddenPattern(raw.Name, raw.Signature, raw.Reason, raw.Message)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("pattern set %s contains no patterns", path)
	}
	return patterns, nil
}

// Guard scans statements and block headers for forbidden-operation
// matches. It emits at most one Rejected diagnostic per line.
func Guard(lines []Line, patterns []ForbiddenPattern) []Diagnostic {
	var diags []Diagnostic
	for i, ln := range lines {
		if ln.Role != RoleSimpleStatement && ln.Role != RoleBlockHeader {
			continue
		}
		for _, p := range patterns {
			if p.signature.MatchString(ln.Text) {
				diags = append(diags, Diagnostic{
					Severity: SeverityRejected,
					Code:     p.ReasonCode,
					Line:     i,
					Message:  fmt.Sprintf("line %d %s (pattern %s)", i, p.Message, p.Name),
				})
				break
			}
		}
	}
	return diags
}
