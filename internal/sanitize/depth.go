package sanitize

import "strings"

// blockFrame is one entry of the structural stack. Frames are pushed by
// block headers and popped only on an explicit structural cue, never on
// whitespace. The stack is strictly increasing in depth from bottom to top.
type blockFrame struct {
	openedBy   int // line index of the header that pushed this frame
	depth      int // depth assigned to statements inside this frame
	statements int // statements emitted while this frame was on top
}

// AssignDepths converts classified lines into lines with resolved depths.
// It returns a new slice; the input is untouched.
//
// Policy: the tracker never guesses a dedent from whitespace. A frame is
// popped in exactly two cases: a continuation header (elif/else/except/
// finally) closes the sibling frame it continues, and a comment/blank run
// immediately followed by a header that "looks top-level" closes everything
// open. "Looks top-level" means a header whose literal text was previously
// seen at depth 0, or a second def/class header after the current frame has
// emitted at least one statement. Everything else stays nested;
// over-indenting is a cheaper failure than leaking a scope.
func AssignDepths(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)

	var stack []blockFrame
	seenAtTop := make(map[string]bool)
	blankRun := 0

	for i := range out {
		switch out[i].Role {
		case RoleCommentOrBlank:
			// Comments keep the current nesting; blanks render empty
			// regardless of depth.
			out[i].Depth = len(stack)
			blankRun++

		case RoleModuleDeclaration:
			// Always depth 0, and the stack is left alone. The declaration
			// is also transparent to a pending comment/blank run: the
			// normalizer will hoist it away, so a header behind it must see
			// the same dedent cue on a re-run of the tracker.
			out[i].Depth = 0

		case RoleBlockHeader:
			if isContinuationHeader(out[i].Text) {
				// elif/else/except/finally close the sibling frame they
				// continue and open their own at the same depth.
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			} else if blankRun > 0 && len(stack) > 0 && looksTopLevel(out[i].Text, seenAtTop, stack) {
				stack = stack[:0]
			}
			depth := len(stack)
			out[i].Depth = depth
			if depth == 0 && !isContinuationHeader(out[i].Text) {
				seenAtTop[out[i].Text] = true
			}
			stack = append(stack, blockFrame{openedBy: i, depth: depth + 1})
			blankRun = 0

		case RoleSimpleStatement:
			out[i].Depth = len(stack)
			if len(stack) > 0 {
				stack[len(stack)-1].statements++
			}
			blankRun = 0
		}
	}
	return out
}

// continuationKeywords open a branch of an existing construct rather than a
// new nested scope.
var continuationKeywords = []string{"elif", "else", "except", "finally"}

func isContinuationHeader(text string) bool {
	for _, kw := range continuationKeywords {
		if hasKeywordPrefix(text, kw) {
			return true
		}
	}
	return false
}

// looksTopLevel implements the conservative dedent cue for a header that
// follows a comment/blank run while frames are still open.
func looksTopLevel(text string, seenAtTop map[string]bool, stack []blockFrame) bool {
	if seenAtTop[text] {
		return true
	}
	if hasKeywordPrefix(text, "def") || hasKeywordPrefix(text, "class") {
		return stack[len(stack)-1].statements > 0
	}
	return false
}

// IndentUnit is the canonical indentation emitted per depth level.
const IndentUnit = "    "

// Render reconstructs text from lines, replacing original whitespace with
// depth*IndentUnit. Blank lines stay empty.
func Render(lines []Line) string {
	var sb strings.Builder
	for i, ln := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if ln.Text == "" {
			continue
		}
		depth := ln.Depth
		if depth < 0 {
			depth = 0
		}
		for d := 0; d < depth; d++ {
			sb.WriteString(IndentUnit)
		}
		sb.WriteString(ln.Text)
	}
	return sb.String()
}
