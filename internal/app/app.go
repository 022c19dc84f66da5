package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/markdave123-py/contexta-qa/internal/config"
	"github.com/markdave123-py/contexta-qa/internal/core"
	"github.com/markdave123-py/contexta-qa/internal/core/answer"
	"github.com/markdave123-py/contexta-qa/internal/core/extraction"
	"github.com/markdave123-py/contexta-qa/internal/core/llm"
	"github.com/markdave123-py/contexta-qa/internal/core/resilience"
	"github.com/markdave123-py/contexta-qa/internal/observability/metrics"
)

type App struct {
	Engine    *answer.Engine
	Extractor *extraction.Extractor
	Metrics   *metrics.Metrics
	Server    *Server

	generator *llm.GeminiGenerator
}

// NewApp loads the model registry and builds every model client once; they
// are shared by all requests for the life of the process.
func NewApp(ctx context.Context, cfg *config.Config, ocrEngine core.OCREngine, logger *slog.Logger) (*App, error) {
	registry, err := answer.DefaultRegistry()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	policy := resilience.DefaultPolicy()
	policy.Attempts = cfg.ModelRetryAttempts
	exec := resilience.NewExecutor(policy, logger)

	qa := llm.NewHuggingFaceQA(cfg.QAAPIURL, cfg.QAAPIToken, cfg.QATimeout, exec)
	if cfg.QAAPIToken == "" {
		logger.Warn("QA_API_TOKEN is empty, extractive models may be rate limited")
	}

	var (
		gen       core.TextGenerator
		generator *llm.GeminiGenerator
	)
	if cfg.AIAPIKey != "" {
		generator, err = llm.NewGeminiGenerator(ctx, cfg.AIAPIKey, exec)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the generator, %w", err)
		}
		gen = generator
	} else {
		logger.Warn("GEMINI_API_KEY is empty, generative models are disabled")
	}

	engine := answer.NewEngine(registry, qa, gen, answer.Options{
		ContextMaxChars: cfg.ContextMaxChars,
		MaxTokens:       cfg.GenMaxTokens,
		Temperature:     cfg.GenTemperature,
	}, m, logger)

	extractor := extraction.NewExtractor(ocrEngine, logger)

	server := NewServer(cfg, Deps{
		Extractor: extractor,
		Answers:   engine,
		Metrics:   m,
		Logger:    logger,
	})

	logger.Info("models loaded", "count", len(registry.List()), "default", registry.Default().ID)
	return &App{
		Engine:    engine,
		Extractor: extractor,
		Metrics:   m,
		Server:    server,
		generator: generator,
	}, nil
}

func (a *App) Close() {
	if a.generator != nil {
		_ = a.generator.Close()
	}
}
