// Package answer turns a question and an extracted context into an answer
// string using the models listed in the registry.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/markdave123-py/contexta-qa/internal/core"
)

const (
	MsgNoContext    = "Please provide some context (upload a document or image) before asking a question."
	MsgNoAnswer     = "I couldn't find a specific answer to your question in the provided context."
	msgErrorPrefix  = "Error processing your question: "
	answerMarker    = "Answer:"
	defaultMaxChars = 512
)

// Recorder receives per-question observations. The metrics package
// implements it.
type Recorder interface {
	ObserveAnswer(model, outcome string, took time.Duration)
	ObserveTruncation()
}

type Options struct {
	ContextMaxChars int
	MaxTokens       int
	Temperature     float64
}

type Engine struct {
	registry *Registry
	qa       core.QuestionAnswerer
	gen      core.TextGenerator
	opts     Options
	rec      Recorder
	logger   *slog.Logger
}

// NewEngine wires the engine. gen and rec may be nil; generative models then
// answer with an error message.
func NewEngine(registry *Registry, qa core.QuestionAnswerer, gen core.TextGenerator, opts Options, rec Recorder, logger *slog.Logger) *Engine {
	if opts.ContextMaxChars <= 0 {
		opts.ContextMaxChars = defaultMaxChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry: registry,
		qa:       qa,
		gen:      gen,
		opts:     opts,
		rec:      rec,
		logger:   logger,
	}
}

// ListModels returns the registry minus generative models when no generator
// is configured.
func (e *Engine) ListModels() []Model {
	models := e.registry.List()
	if e.gen != nil {
		return models
	}
	served := models[:0]
	for _, m := range models {
		if m.Kind != KindGenerative {
			served = append(served, m)
		}
	}
	return served
}

// Answer never fails: model errors come back as a readable message.
func (e *Engine) Answer(ctx context.Context, question, modelID, passage string) string {
	start := time.Now()
	model := e.pick(modelID)

	text, outcome, err := e.resolve(ctx, question, model, passage)
	if err != nil {
		e.logger.Error("answering failed", "model", model.ID, "error", err)
		text, outcome = msgErrorPrefix+err.Error(), "error"
	}

	e.logger.Info("question answered",
		"model", model.ID,
		"outcome", outcome,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	if e.rec != nil {
		e.rec.ObserveAnswer(model.ID, outcome, time.Since(start))
	}
	return text
}

func (e *Engine) pick(id string) Model {
	if m, ok := e.registry.Lookup(id); ok {
		return m
	}
	def := e.registry.Default()
	e.logger.Warn("unknown model requested, using default", "requested", id, "model", def.ID)
	return def
}

func (e *Engine) resolve(ctx context.Context, question string, model Model, passage string) (string, string, error) {
	if passage == "" {
		return MsgNoContext, "no_context", nil
	}

	if model.Kind == KindGenerative {
		return e.generate(ctx, question, model)
	}

	passage, cut := truncate(passage, e.opts.ContextMaxChars)
	if cut {
		e.logger.Debug("context truncated", "model", model.ID, "limit", e.opts.ContextMaxChars)
		if e.rec != nil {
			e.rec.ObserveTruncation()
		}
	}
	if e.qa == nil {
		return "", "", fmt.Errorf("%w: no extractive backend configured", core.ErrModelInvocation)
	}

	res, err := e.qa.Answer(ctx, model.Backend, question, passage)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(res.Answer) == "" {
		return MsgNoAnswer, "no_answer", nil
	}
	return res.Answer, "answered", nil
}

func (e *Engine) generate(ctx context.Context, question string, model Model) (string, string, error) {
	if e.gen == nil {
		return "", "", fmt.Errorf("%w: generative model %s is not configured", core.ErrModelInvocation, model.ID)
	}

	prompt := "Question: " + question + "\n" + answerMarker
	out, err := e.gen.Generate(ctx, model.Backend, prompt, core.GenerationOptions{
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		return "", "", err
	}
	if i := strings.LastIndex(out, answerMarker); i >= 0 {
		out = out[i+len(answerMarker):]
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return MsgNoAnswer, "no_answer", nil
	}
	return out, "answered", nil
}

// truncate keeps the first n code points of s.
func truncate(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	i, count := 0, 0
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], true
}
