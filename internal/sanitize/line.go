// Package sanitize repairs and validates generated Python example code
// before it is shown to or executed by a learner. It re-derives block
// structure from trimmed content (original whitespace is not trusted),
// hoists and synthesizes imports against a symbol table, and rejects code
// that depends on external files, networks, or databases.
//
// The pipeline is deliberately not a parser. It is a line-oriented state
// machine with a conservative dedent policy; its documented limits live on
// the individual stages.
package sanitize

// LineRole labels a physical line by its syntactic role. Roles are assigned
// once by the Classifier and never change.
type LineRole int

const (
	// RoleCommentOrBlank is a blank line or a comment-only line.
	RoleCommentOrBlank LineRole = iota
	// RoleModuleDeclaration binds an external name into scope (import/from).
	// Always rendered at depth 0.
	RoleModuleDeclaration
	// RoleBlockHeader opens a nested scope and ends with ":".
	RoleBlockHeader
	// RoleSimpleStatement is any other non-blank line.
	RoleSimpleStatement
)

func (r LineRole) String() string {
	switch r {
	case RoleCommentOrBlank:
		return "comment_or_blank"
	case RoleModuleDeclaration:
		return "module_declaration"
	case RoleBlockHeader:
		return "block_header"
	case RoleSimpleStatement:
		return "simple_statement"
	default:
		return "unknown"
	}
}

// DepthUnresolved marks a line whose depth has not been assigned yet.
const DepthUnresolved = -1

// Line is one physical line of input. Text holds the trimmed content; the
// original leading whitespace is discarded at classification time and
// reconstructed from Depth at render time.
type Line struct {
	Text  string
	Role  LineRole
	Depth int
}

// Severity grades a Diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityRejected
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Diagnostic codes. Forbidden-operation reason codes are defined per
// pattern in guard.go.
const (
	CodeStructuralAmbiguity = "STRUCTURAL_AMBIGUITY"
	CodeMissingDeclaration  = "MISSING_DECLARATION"
	CodeUnableToRepair      = "UNABLE_TO_REPAIR"
	CodeIrrelevantTech      = "IRRELEVANT_TECH"
)

// Diagnostic reports one finding from a pipeline stage.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	// Line is the zero-based input line index, or NoLine when the
	// diagnostic is not tied to a single line.
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// NoLine is the Line value for diagnostics that are not line-scoped.
const NoLine = -1

// Result is the typed outcome of one pipeline invocation. When Accepted is
// false the Text is the unmodified input: callers must never execute it.
type Result struct {
	Text        string       `json:"text"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Accepted    bool         `json:"accepted"`
}

// Rejected reports whether any diagnostic carries SeverityRejected.
func (r Result) Rejected() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityRejected {
			return true
		}
	}
	return false
}

// RequestContext carries read-only metadata about the generation request.
// The pipeline only reads it for diagnostics and logging.
type RequestContext struct {
	Subject     string
	LessonTitle string
	Keywords    []string
	Style       string
}
