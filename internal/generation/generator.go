package generation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"codetutor/internal/audit"
	"codetutor/internal/sanitize"
)

// Outcome is the result of one example-generation cycle.
type Outcome struct {
	// Code is the sanitized example ready for display.
	Code string
	// Phase records which attempt produced the code: initial, strict_retry,
	// or fallback.
	Phase string
	// Diagnostics aggregates every diagnostic from the accepted attempt.
	Diagnostics []sanitize.Diagnostic
}

// Generator runs the generate, sanitize, retry, fallback loop. The audit
// store is optional; a nil store disables recording.
type Generator struct {
	client      Client
	pipeline    *sanitize.Pipeline
	store       *audit.Store
	logger      *zap.Logger
	temperature float64
	strictTemp  float64
	maxRetries  int
}

// NewGenerator wires a provider client to the sanitization pipeline.
func NewGenerator(client Client, pipeline *sanitize.Pipeline, store *audit.Store, logger *zap.Logger, temperature, strictTemp float64, maxRetries int) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Generator{
		client:      client,
		pipeline:    pipeline,
		store:       store,
		logger:      logger,
		temperature: temperature,
		strictTemp:  strictTemp,
		maxRetries:  maxRetries,
	}
}

// Generate produces a sanitized example for the request. The first attempt
// uses the standard prompt; a rejection triggers up to maxRetries strict
// retries at lower temperature; if everything is rejected the deterministic
// fallback example is returned. The fallback always sanitizes clean, so
// Generate never returns unsanitized code.
func (g *Generator) Generate(ctx context.Context, req Request) (Outcome, error) {
	if req.Subject == "" {
		req.Subject = InferSubject(req.Keywords, req.LessonContent)
	}
	log := g.logger.With(
		zap.String("provider", g.client.Name()),
		zap.String("lesson", req.LessonTitle),
		zap.String("subject", req.Subject),
	)

	attempts := []struct {
		phase       string
		prompt      string
		temperature float64
	}{
		{audit.PhaseInitial, BuildPrompt(req), g.temperature},
	}
	for i := 0; i < g.maxRetries; i++ {
		attempts = append(attempts, struct {
			phase       string
			prompt      string
			temperature float64
		}{audit.PhaseStrict, BuildStrictPrompt(req), g.strictTemp})
	}

	for _, att := range attempts {
		raw, err := g.client.GenerateExample(ctx, att.prompt, att.temperature)
		if err != nil {
			return Outcome{}, fmt.Errorf("generate example (%s): %w", att.phase, err)
		}

		code := StripFences(raw)
		res := g.sanitizeAttempt(ctx, code, req, att.phase, log)
		if res.Accepted {
			log.Info("example accepted", zap.String("phase", att.phase),
				zap.Int("diagnostics", len(res.Diagnostics)))
			return Outcome{Code: res.Text, Phase: att.phase, Diagnostics: res.Diagnostics}, nil
		}
		log.Warn("example rejected, continuing", zap.String("phase", att.phase),
			zap.Int("diagnostics", len(res.Diagnostics)))
	}

	// Every model attempt was rejected.
	fallback := FallbackExample(req.LessonTitle)
	res := g.sanitizeAttempt(ctx, fallback, req, audit.PhaseFallback, log)
	if !res.Accepted {
		// The fallback is constructed to pass; failing here means the
		// pattern set was misconfigured to reject plain print statements.
		return Outcome{}, fmt.Errorf("fallback example rejected: %d diagnostics", len(res.Diagnostics))
	}
	log.Warn("all attempts rejected, using fallback example")
	return Outcome{Code: res.Text, Phase: audit.PhaseFallback, Diagnostics: res.Diagnostics}, nil
}

// sanitizeAttempt screens for off-topic technology, runs the pipeline, and
// records the attempt in the audit trail.
func (g *Generator) sanitizeAttempt(ctx context.Context, code string, req Request, phase string, log *zap.Logger) sanitize.Result {
	var res sanitize.Result
	if ok, marker := CheckRelevance(code); !ok {
		res = sanitize.Result{
			Text: code,
			Diagnostics: []sanitize.Diagnostic{{
				Severity: sanitize.SeverityRejected,
				Code:     sanitize.CodeIrrelevantTech,
				Line:     sanitize.NoLine,
				Message:  fmt.Sprintf("output contains non-Python marker %q", marker),
			}},
			Accepted: false,
		}
	} else {
		res = g.pipeline.Sanitize(code, sanitize.RequestContext{
			Subject:     req.Subject,
			LessonTitle: req.LessonTitle,
			Keywords:    req.Keywords,
			Style:       req.Style,
		})
	}

	if g.store != nil {
		_, err := g.store.RecordRun(ctx, audit.Run{
			Subject:     req.Subject,
			LessonTitle: req.LessonTitle,
			Phase:       phase,
			Accepted:    res.Accepted,
			Input:       code,
			Output:      res.Text,
			Diagnostics: res.Diagnostics,
		})
		if err != nil {
			// Audit failures never block the learner-facing path.
			log.Error("audit record failed", zap.Error(err))
		}
	}
	return res
}
