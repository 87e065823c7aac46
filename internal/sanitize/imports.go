package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// SymbolTable maps a bare identifier to its canonical declaring statement.
// Implementations must be immutable for the duration of a pipeline run.
type SymbolTable interface {
	Lookup(identifier string) (declaration string, ok bool)
}

// NormalizeImports guarantees that every module declaration appears at
// depth 0 exactly once per distinct declaration text, in original relative
// order, and that every used identifier with a symbol-table entry and no
// declaring line gets its canonical declaration synthesized at the top of
// the output, ordered by first textual reference.
//
// The symbol table is never mutated. Identifiers that look external but have
// neither a declaration nor a table entry produce a Warning diagnostic so
// table coverage gaps can be logged.
func NormalizeImports(lines []Line, table SymbolTable) ([]Line, []Diagnostic) {
	var (
		declOrder []string
		declSeen  = make(map[string]bool)
		bound     = collectBoundNames(lines)
	)
	for _, ln := range lines {
		if ln.Role != RoleModuleDeclaration {
			continue
		}
		for _, name := range declaredNames(ln.Text) {
			bound[name] = true
		}
		if !declSeen[ln.Text] {
			declSeen[ln.Text] = true
			declOrder = append(declOrder, ln.Text)
		}
	}

	var (
		synthOrder []string
		synthSeen  = make(map[string]bool)
		warned     = make(map[string]bool)
		diags      []Diagnostic
	)
	for i, ln := range lines {
		if ln.Role != RoleSimpleStatement && ln.Role != RoleBlockHeader {
			continue
		}
		for _, tok := range scanIdentifiers(ln.Text) {
			if tok.afterDot || pythonKeywords[tok.name] || pythonBuiltins[tok.name] || bound[tok.name] {
				continue
			}
			if decl, ok := table.Lookup(tok.name); ok {
				if !declSeen[decl] && !synthSeen[decl] {
					synthSeen[decl] = true
					synthOrder = append(synthOrder, decl)
				}
				// Lookup resolved it; treat as bound from here on.
				bound[tok.name] = true
				continue
			}
			// Only names that plausibly need a declaration are worth a
			// coverage warning: roots of attribute access or
			// constructor-style calls.
			if (tok.attrRoot || (tok.called && isCapitalized(tok.name))) && !warned[tok.name] {
				warned[tok.name] = true
				diags = append(diags, Diagnostic{
					Severity: SeverityWarning,
					Code:     CodeMissingDeclaration,
					Line:     i,
					Message:  fmt.Sprintf("identifier %q has no declaration and no symbol table entry", tok.name),
				})
			}
		}
	}

	out := make([]Line, 0, len(lines)+len(synthOrder))
	for _, decl := range synthOrder {
		out = append(out, Line{Text: decl, Role: RoleModuleDeclaration, Depth: 0})
	}
	emitted := make(map[string]bool)
	for _, decl := range declOrder {
		if !emitted[decl] {
			emitted[decl] = true
			out = append(out, Line{Text: decl, Role: RoleModuleDeclaration, Depth: 0})
		}
	}
	for _, ln := range lines {
		if ln.Role == RoleModuleDeclaration {
			continue
		}
		out = append(out, ln)
	}
	return out, diags
}

// identToken is one identifier occurrence with enough context to decide
// whether it plausibly references an external name.
type identToken struct {
	name     string
	afterDot bool // preceded by '.', an attribute tail
	attrRoot bool // followed by '.', the root of an attribute chain
	called   bool // followed by '('
}

// scanIdentifiers extracts identifier occurrences from a single line,
// skipping quoted regions. Triple-quoted strings spanning lines are a
// documented limitation of the line-oriented design.
func scanIdentifiers(s string) []identToken {
	var toks []identToken
	var quote byte
	prev := byte(0)
	i := 0
	for i < len(s) {
		c := s[i]
		if quote != 0 {
			if c == quote && prev != '\\' {
				quote = 0
			}
			prev = c
			i++
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			prev = c
			i++
			continue
		}
		if c == '#' {
			break
		}
		if isIdentStart(c) {
			start := i
			for i < len(s) && isIdentPart(s[i]) {
				i++
			}
			name := s[start:i]
			next := nextNonSpace(s, i)
			toks = append(toks, identToken{
				name:     name,
				afterDot: prev == '.',
				attrRoot: next == '.',
				called:   next == '(',
			})
			prev = s[i-1]
			continue
		}
		if c != ' ' && c != '\t' {
			prev = c
		}
		i++
	}
	return toks
}

func nextNonSpace(s string, i int) byte {
	for ; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return s[i]
		}
	}
	return 0
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isCapitalized(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

var (
	assignTargetsRe = regexp.MustCompile(`^([A-Za-z_]\w*(?:\s*,\s*[A-Za-z_]\w*)*)\s*=(?:[^=]|$)`)
	forTargetsRe    = regexp.MustCompile(`^for\s+(.+?)\s+in\s`)
	asTargetRe      = regexp.MustCompile(`\bas\s+([A-Za-z_]\w*)`)
	defRe           = regexp.MustCompile(`^def\s+([A-Za-z_]\w*)\s*\((.*)\)\s*:`)
	classRe         = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`)
)

// collectBoundNames gathers names bound anywhere in the text: assignment
// targets, loop targets, as-targets, def/class names, and parameters.
// Used identifiers that are locally bound never need a synthesized import.
func collectBoundNames(lines []Line) map[string]bool {
	bound := make(map[string]bool)
	for _, ln := range lines {
		if ln.Role == RoleCommentOrBlank || ln.Role == RoleModuleDeclaration {
			continue
		}
		text := ln.Text
		if m := assignTargetsRe.FindStringSubmatch(text); m != nil {
			for _, t := range strings.Split(m[1], ",") {
				bound[strings.TrimSpace(t)] = true
			}
		}
		if m := forTargetsRe.FindStringSubmatch(text); m != nil {
			for _, t := range strings.Split(m[1], ",") {
				t = strings.Trim(strings.TrimSpace(t), "()")
				if t != "" {
					bound[t] = true
				}
			}
		}
		for _, m := range asTargetRe.FindAllStringSubmatch(text, -1) {
			bound[m[1]] = true
		}
		if m := defRe.FindStringSubmatch(text); m != nil {
			bound[m[1]] = true
			for _, p := range strings.Split(m[2], ",") {
				p = strings.TrimSpace(p)
				p = strings.TrimLeft(p, "*")
				if eq := strings.IndexByte(p, '='); eq >= 0 {
					p = p[:eq]
				}
				if colon := strings.IndexByte(p, ':'); colon >= 0 {
					p = p[:colon]
				}
				p = strings.TrimSpace(p)
				if p != "" {
					bound[p] = true
				}
			}
		}
		if m := classRe.FindStringSubmatch(text); m != nil {
			bound[m[1]] = true
		}
	}
	return bound
}

// declaredNames returns the identifiers a module declaration binds:
// "import numpy as np" binds np, "import os.path" binds os,
// "from a import b, c as d" binds b and d.
func declaredNames(decl string) []string {
	decl = strings.TrimSpace(decl)
	var clause string
	switch {
	case strings.HasPrefix(decl, "from "):
		idx := strings.Index(decl, " import ")
		if idx < 0 {
			return nil
		}
		clause = decl[idx+len(" import "):]
	case strings.HasPrefix(decl, "import "):
		clause = decl[len("import "):]
	default:
		return nil
	}

	var names []string
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "*" {
			continue
		}
		if idx := strings.Index(part, " as "); idx >= 0 {
			names = append(names, strings.TrimSpace(part[idx+len(" as "):]))
			continue
		}
		// Undotted root: "import os.path" binds os.
		if dot := strings.IndexByte(part, '.'); dot >= 0 {
			part = part[:dot]
		}
		if fields := strings.Fields(part); len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names
}

var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true,
	"class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true,
	"for": true, "from": true, "global": true, "if": true,
	"import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true,
	"raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true,
}

var pythonBuiltins = map[string]bool{
	"abs": true, "all": true, "any": true, "bool": true, "bytes": true,
	"dict": true, "enumerate": true, "filter": true, "float": true,
	"format": true, "frozenset": true, "getattr": true, "hasattr": true,
	"hash": true, "id": true, "input": true, "int": true,
	"isinstance": true, "issubclass": true, "iter": true, "len": true,
	"list": true, "map": true, "max": true, "min": true, "next": true,
	"object": true, "open": true, "ord": true, "pow": true, "print": true,
	"range": true, "repr": true, "reversed": true, "round": true,
	"set": true, "setattr": true, "sorted": true, "str": true,
	"sum": true, "super": true, "tuple": true, "type": true, "vars": true,
	"zip": true,
	"Exception": true, "ValueError": true, "TypeError": true,
	"KeyError": true, "IndexError": true, "RuntimeError": true,
	"ZeroDivisionError": true, "FileNotFoundError": true,
	"NotImplementedError": true, "StopIteration": true,
	"self": true, "cls": true,
}
