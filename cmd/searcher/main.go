// Command searcher serves one local folder over HTTP.
//
// The corpus is built (or loaded from its snapshot) before the listener
// opens; a folder that cannot be indexed stops the process with exit code 1.
//
// Usage:
//
//	go run ./cmd/searcher [-config docsearch.yaml] [-root ./docs]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/service"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	root := flag.String("root", "", "folder to index (overrides corpus.root)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *root != "" {
		cfg.Corpus.Root = *root
	}
	if cfg.Corpus.Root == "" && flag.NArg() > 0 {
		cfg.Corpus.Root = flag.Arg(0)
	}
	if cfg.Corpus.Root == "" {
		fmt.Fprintln(os.Stderr, "no folder to index: set corpus.root, DS_CORPUS_ROOT or -root")
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service",
		"root", cfg.Corpus.Root,
		"addr", cfg.Server.Addr(),
		"workers", cfg.Corpus.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	corp, err := service.LoadCorpus(ctx, cfg, m)
	if err != nil {
		slog.Error("failed to build corpus", "root", cfg.Corpus.Root, "error", err)
		os.Exit(1)
	}

	if err := service.New(ctx, cfg, corp, m).Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
