package sanitize

import (
	"fmt"
	"strings"
)

// moduleDeclKeywords introduce statements that bind external names.
var moduleDeclKeywords = []string{"import", "from"}

// blockKeywords introduce nested scopes when the line also ends with ":".
var blockKeywords = []string{
	"def", "class",
	"if", "elif", "else",
	"for", "while",
	"try", "except", "finally",
	"with",
}

// Classify splits raw text into physical lines and assigns each a LineRole
// using only trimmed content. The input is never modified; depths are left
// unresolved for the tracker.
//
// Known limitation: string literals are not tokenized, so a ":" inside a
// string can cause a misclassification. Such lines are flagged with an
// Info-level STRUCTURAL_AMBIGUITY diagnostic rather than silently "fixed".
func Classify(raw string) ([]Line, []Diagnostic) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	physical := strings.Split(raw, "\n")

	lines := make([]Line, 0, len(physical))
	var diags []Diagnostic

	for i, p := range physical {
		trimmed := strings.TrimSpace(p)
		role := classifyTrimmed(trimmed)
		lines = append(lines, Line{Text: trimmed, Role: role, Depth: DepthUnresolved})

		if role == RoleBlockHeader && hasUnbalancedQuote(trimmed) {
			diags = append(diags, Diagnostic{
				Severity: SeverityInfo,
				Code:     CodeStructuralAmbiguity,
				Line:     i,
				Message:  fmt.Sprintf("line %d ends with ':' but contains an unbalanced quote; block classification may be wrong", i),
			})
		}
	}
	return lines, diags
}

func classifyTrimmed(trimmed string) LineRole {
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return RoleCommentOrBlank
	}
	for _, kw := range moduleDeclKeywords {
		if hasKeywordPrefix(trimmed, kw) {
			return RoleModuleDeclaration
		}
	}
	if strings.HasSuffix(trimmed, ":") {
		for _, kw := range blockKeywords {
			if hasKeywordPrefix(trimmed, kw) {
				return RoleBlockHeader
			}
		}
	}
	return RoleSimpleStatement
}

// hasKeywordPrefix reports whether trimmed starts with kw as a whole word.
// "iffy = 1" must not match "if".
func hasKeywordPrefix(trimmed, kw string) bool {
	if !strings.HasPrefix(trimmed, kw) {
		return false
	}
	rest := trimmed[len(kw):]
	if rest == "" {
		return true
	}
	switch rest[0] {
	case ' ', '\t', ':', '(':
		return true
	}
	return false
}

// hasUnbalancedQuote is a cheap ambiguity signal: an odd number of single
// or double quotes on a line that classified as a block header.
func hasUnbalancedQuote(s string) bool {
	return strings.Count(s, `"`)%2 == 1 || strings.Count(s, `'`)%2 == 1
}
