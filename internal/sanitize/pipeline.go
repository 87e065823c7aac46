package sanitize

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// state tracks pipeline progress. Transitions are strictly sequential and
// non-branching except at stateGuarded, where a forbidden-pattern match
// short-circuits to stateRejected.
type state int

const (
	stateReceived state = iota
	stateClassified
	stateDepthAssigned
	stateImportsNormalized
	stateGuarded
	stateValidated
	stateAccepted
	stateRejected
)

func (s state) String() string {
	switch s {
	case stateReceived:
		return "received"
	case stateClassified:
		return "classified"
	case stateDepthAssigned:
		return "depth_assigned"
	case stateImportsNormalized:
		return "imports_normalized"
	case stateGuarded:
		return "guarded"
	case stateValidated:
		return "validated"
	case stateAccepted:
		return "accepted"
	case stateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Pipeline runs the sanitization stages in order. It holds only read-only
// state (symbol table, pattern set, logger), so a single Pipeline value is
// safe for concurrent use; each Sanitize call works on its own buffers.
type Pipeline struct {
	table    SymbolTable
	patterns []ForbiddenPattern
	logger   *zap.Logger
}

// NewPipeline builds a pipeline over an immutable symbol table and pattern
// set. A nil logger disables logging.
func NewPipeline(table SymbolTable, patterns []ForbiddenPattern, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if patterns == nil {
		patterns = DefaultForbiddenPatterns()
	}
	return &Pipeline{table: table, patterns: patterns, logger: logger}
}

// Sanitize repairs raw generated code into parseable, self-contained text,
// or rejects it. It never returns an error: malformed input is the expected
// common case. On any rejection the returned Text is the unmodified input.
func (p *Pipeline) Sanitize(raw string, reqCtx RequestContext) Result {
	runID := uuid.NewString()
	log := p.logger.With(
		zap.String("run_id", runID),
		zap.String("subject", reqCtx.Subject),
		zap.String("lesson", reqCtx.LessonTitle),
	)

	st := stateReceived
	var diags []Diagnostic

	lines, classifyDiags := Classify(raw)
	diags = append(diags, classifyDiags...)
	st = stateClassified
	log.Debug("stage complete", zap.String("state", st.String()), zap.Int("lines", len(lines)))

	lines = AssignDepths(lines)
	st = stateDepthAssigned
	log.Debug("stage complete", zap.String("state", st.String()))

	lines, importDiags := NormalizeImports(lines, p.table)
	diags = append(diags, importDiags...)
	st = stateImportsNormalized
	log.Debug("stage complete", zap.String("state", st.String()), zap.Int("warnings", len(importDiags)))

	guardDiags := Guard(lines, p.patterns)
	st = stateGuarded
	if len(guardDiags) > 0 {
		st = stateRejected
		diags = append(diags, guardDiags...)
		log.Warn("forbidden operation, rejecting",
			zap.String("state", st.String()),
			zap.String("code", guardDiags[0].Code))
		return Result{Text: raw, Diagnostics: diags, Accepted: false}
	}

	text := Render(lines)
	if err := validateStructure(text); err != nil {
		st = stateRejected
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeUnableToRepair,
			Line:     NoLine,
			Message:  err.Error(),
		})
		log.Warn("self-validation failed, returning original text",
			zap.String("state", st.String()), zap.Error(err))
		// Never hand back text that looks sanitized but is still broken.
		return Result{Text: raw, Diagnostics: diags, Accepted: false}
	}
	st = stateValidated

	st = stateAccepted
	log.Debug("pipeline complete", zap.String("state", st.String()))
	return Result{Text: text, Diagnostics: diags, Accepted: true}
}

// validateStructure re-classifies the sanitized output and checks that no
// block header was left without a body: every header must be followed by at
// least one code line at depth headerDepth+1 before any line at a depth at
// or below its own. Comments and module declarations do not count as a
// body. An empty block is a structural error the pipeline must not
// introduce.
func validateStructure(text string) error {
	lines, _ := Classify(text)
	lines = AssignDepths(lines)

	for i, ln := range lines {
		if ln.Role != RoleBlockHeader {
			continue
		}
		if !headerHasBody(lines, i) {
			return fmt.Errorf("block opened at line %d (%q) has no body", i, ln.Text)
		}
	}
	return nil
}

func headerHasBody(lines []Line, header int) bool {
	want := lines[header].Depth + 1
	for _, ln := range lines[header+1:] {
		switch ln.Role {
		case RoleCommentOrBlank, RoleModuleDeclaration:
			continue
		}
		if ln.Depth == want {
			return true
		}
		if ln.Depth <= lines[header].Depth {
			return false
		}
	}
	return false
}
