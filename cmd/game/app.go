package main

import (
	"context"
	"fmt"
	"time"

	"stolenpainting/internal/casefile"
	"stolenpainting/internal/chat"
	"stolenpainting/internal/config"
	"stolenpainting/internal/debug"
	"stolenpainting/internal/game"
	"stolenpainting/internal/llm"
	"stolenpainting/internal/logging"
	"stolenpainting/internal/observability"
)

// app holds everything a game session needs and tears it down in order.
type app struct {
	cfg     config.Config
	debug   *debug.Logger
	tracing *observability.TracerProvider
	journal *logging.CompletionLogger
	engine  *game.Engine
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	a.debug = debug.NewLogger(cfg.Debug, cfg.DebugLogPath)

	a.tracing, err = observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		a.debug.Printf("Failed to initialize tracing: %v", err)
	} else if a.tracing.IsEnabled() {
		a.debug.Println("OpenTelemetry tracing initialized and enabled")
	} else {
		a.debug.Println("OpenTelemetry tracing disabled (set OTEL_TRACES_ENABLED=true to enable)")
	}

	kase, err := casefile.Load()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load case: %w", err)
	}

	a.journal, err = logging.NewCompletionLogger(cfg.CompletionsDB)
	if err != nil {
		a.debug.Printf("Completion journal unavailable: %v", err)
		a.journal = nil
	}

	var completer chat.Completer
	if cfg.HasAPIKey() {
		service := llm.NewService(cfg.OpenAIAPIKey, cfg.Model, kase.Completion, a.debug)
		if a.journal != nil {
			service.SetJournal(a.journal)
		}
		completer = service
		a.debug.Printf("Chat completions via %s, timeout %v", service.Model(), cfg.ChatTimeout)
	} else {
		a.debug.Println("OPENAI_API_KEY not set, suspects will not answer")
	}

	a.engine = game.NewEngine(kase, completer, game.Options{
		ChatTimeout: cfg.ChatTimeout,
		Debug:       a.debug,
		Tracer:      a.tracing.GetTracer("game-engine"),
	})
	return a, nil
}

func (a *app) Close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.tracing.Shutdown(ctx); err != nil {
			a.debug.Printf("Tracing shutdown: %v", err)
		}
		cancel()
	}
	if a.journal != nil {
		a.journal.Close()
	}
	a.debug.Close()
}
