// Command analytics aggregates search events from every search service that
// publishes to Kafka.
//
// It consumes kafka.topics.searchEvents, aggregates the events in memory
// (query totals, latency percentiles, cache hit rate, top and zero-result
// queries, corpus loads) and serves them at GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/analytics [-config docsearch.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service",
		"addr", cfg.Server.Addr(),
		"topic", cfg.Kafka.Topics.SearchEvents,
		"group", cfg.Kafka.ConsumerGroup,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleMessage(aggregator))
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(ctx); err != nil {
			slog.Error("consumer error", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("consumer", func(context.Context) health.ComponentHealth {
		select {
		case <-consumerDone:
			return health.ComponentHealth{Status: health.StatusDown, Message: "consumer stopped"}
		default:
			return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
		}
	})

	analyticsHandler := analytics.NewHandler(aggregator)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.AccessLog(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-consumerDone
	slog.Info("analytics service stopped")
}
