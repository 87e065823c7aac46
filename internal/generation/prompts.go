package generation

import (
	"fmt"
	"strings"
)

// InferSubject guesses the course subject from keywords and lesson content.
// Python is the default: the tutoring pipeline only sanitizes Python, so an
// unknown subject still flows through the Python-oriented prompts.
func InferSubject(keywords []string, content string) string {
	haystack := strings.ToLower(strings.Join(keywords, " ") + " " + content)
	switch {
	case strings.Contains(haystack, "pandas") || strings.Contains(haystack, "numpy") ||
		strings.Contains(haystack, "dataframe") || strings.Contains(haystack, "data analysis"):
		return "Python data analysis"
	case strings.Contains(haystack, "sklearn") || strings.Contains(haystack, "scikit") ||
		strings.Contains(haystack, "machine learning") || strings.Contains(haystack, "regression") ||
		strings.Contains(haystack, "classification"):
		return "Python machine learning"
	case strings.Contains(haystack, "matplotlib") || strings.Contains(haystack, "visualization") ||
		strings.Contains(haystack, "plot"):
		return "Python data visualization"
	default:
		return "Python programming"
	}
}

const contentLimit = 1500

// BuildPrompt renders the standard example-generation prompt.
func BuildPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create practical code examples for the subject %q.\n\n", req.Subject)
	fmt.Fprintf(&sb, "Lesson: %s\n", req.LessonTitle)
	if req.LessonDescription != "" {
		fmt.Fprintf(&sb, "Description: %s\n", req.LessonDescription)
	}
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(req.Keywords, ", "))
	}
	if req.LessonContent != "" {
		fmt.Fprintf(&sb, "\nLesson content (excerpt):\n%s\n", truncate(req.LessonContent, contentLimit))
	}
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("1. All examples must be runnable Python code.\n")
	sb.WriteString("2. Examples must be self-contained: no file access, no network, no database.\n")
	sb.WriteString("3. Use only built-in datasets or generated data.\n")
	sb.WriteString("4. Demonstrate the lesson's concepts in practice.\n")
	if req.Style != "" {
		fmt.Fprintf(&sb, "5. Write comments in a %s tone.\n", req.Style)
	}
	sb.WriteString("\nReturn only Python code, no prose.\n")
	return sb.String()
}

// BuildStrictPrompt renders the tightened retry prompt used after a
// rejection. It repeats the constraints the model just violated.
func BuildStrictPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CRITICAL: create examples STRICTLY for the subject %q.\n\n", req.Subject)
	fmt.Fprintf(&sb, "Lesson: %s\n", req.LessonTitle)
	if req.LessonDescription != "" {
		fmt.Fprintf(&sb, "Description: %s\n", req.LessonDescription)
	}
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(req.Keywords, ", "))
	}
	if req.LessonContent != "" {
		fmt.Fprintf(&sb, "\nLesson content (excerpt):\n%s\n", truncate(req.LessonContent, contentLimit))
	}
	sb.WriteString("\nSTRICT requirements:\n")
	sb.WriteString("1. ALL examples must be Python ONLY. No HTML, JavaScript, CSS, or any other language.\n")
	sb.WriteString("2. Every example must be an executable Python script.\n")
	sb.WriteString("3. NEVER read or write files, open network connections, or touch databases.\n")
	sb.WriteString("4. NEVER pass a filename to any function. Use built-in datasets (load_iris, make_classification) or generated data.\n")
	sb.WriteString("5. Import every module you use, at top level.\n")
	sb.WriteString("\nFORBIDDEN: open(), read_csv(), to_csv(), requests, sockets, database connections.\n")
	sb.WriteString("\nReturn only Python code, no prose.\n")
	return sb.String()
}

// FallbackExample returns a deterministic example used when the model
// cannot produce acceptable output. It must pass sanitization unchanged, so
// it ends with its only block construct and uses no quotes in the title.
func FallbackExample(lessonTitle string) string {
	title := strings.ReplaceAll(lessonTitle, `"`, "'")
	return fmt.Sprintf(`# Basic example for the lesson: %[1]s
print("Studying: %[1]s")

lesson_title = "%[1]s"
completed = True

if completed:
    print(f"Lesson '{lesson_title}' completed")
else:
    print("Keep studying")`, title)
}

// StripFences removes a surrounding markdown code fence from model output.
// Only a fence pair that wraps the whole payload is stripped; fences in the
// middle of the text are left alone.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	body := trimmed[3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		lang := strings.TrimSpace(body[:nl])
		if lang == "" || lang == "python" || lang == "py" || lang == "python3" {
			body = body[nl+1:]
		} else {
			return s
		}
	} else {
		return s
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 && strings.TrimSpace(body[idx+3:]) == "" {
		return strings.TrimRight(body[:idx], "\n")
	}
	return s
}

// irrelevantMarkers flag output in a technology other than Python. Matched
// case-insensitively against the whole payload.
var irrelevantMarkers = []string{
	"<html>", "<head>", "<body>", "<div>", "<script>",
	"javascript", "document.", "onclick", "onload",
	"jquery", "$(",
	"console.log", "function(",
	"public static void", "#include",
}

// CheckRelevance reports whether the generated text looks like Python
// rather than a different technology, and which marker tripped it.
func CheckRelevance(text string) (ok bool, marker string) {
	lower := strings.ToLower(text)
	for _, m := range irrelevantMarkers {
		if strings.Contains(lower, m) {
			return false, m
		}
	}
	return true, ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
