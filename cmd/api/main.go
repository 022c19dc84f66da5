package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/contexta-qa/internal/app"
	"github.com/markdave123-py/contexta-qa/internal/config"
	"github.com/markdave123-py/contexta-qa/internal/core/ocr"
	"github.com/markdave123-py/contexta-qa/internal/observability/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger("contexta-qa", cfg.LogLevel)

	application, err := app.NewApp(ctx, cfg, ocr.NewTesseract(cfg.OCRLanguage, cfg.TessdataDir), logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return application.Server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return application.Server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		application.Close()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
