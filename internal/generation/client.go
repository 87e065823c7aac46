// Package generation produces lesson example code with an LLM provider and
// runs it through the sanitization pipeline before anything reaches a
// learner. The generator owns the regenerate-then-fallback loop; providers
// only turn prompts into text.
package generation

import "context"

// Request describes one example-generation call.
type Request struct {
	LessonTitle       string
	LessonDescription string
	Keywords          []string
	LessonContent     string
	Style             string
	Subject           string
}

// Client is a text-generation provider.
type Client interface {
	// GenerateExample returns raw model output for the prompt. The output
	// may contain markdown fences and structural errors; callers sanitize.
	GenerateExample(ctx context.Context, prompt string, temperature float64) (string, error)
	Name() string
	Close() error
}
