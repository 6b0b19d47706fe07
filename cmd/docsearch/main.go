// Command docsearch indexes a local folder and searches it.
//
// Usage:
//
//	docsearch search <folder> <query...>
//	docsearch index <folder>
//	docsearch serve <folder>
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/service"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/metrics"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "docsearch:", err)
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "docsearch",
		Usage:     "Search the text, PDF and DOCX files of a local folder",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		// Errors are reported by main so that Run never exits the process.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Indexing workers, 0 means one per CPU",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Rank the documents of a folder against a query",
				ArgsUsage: "<folder> <query...>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Print at most N results, 0 means all",
					},
				},
			},
			{
				Name:      "index",
				Usage:     "Build or load the index of a folder and report its size",
				ArgsUsage: "<folder>",
				Action:    indexCommand,
			},
			{
				Name:      "serve",
				Usage:     "Serve a folder over HTTP",
				ArgsUsage: "<folder>",
				Action:    serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Listen host (overrides server.host)",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Listen port (overrides server.port)",
					},
				},
			},
		},
	}
}

// loadConfig reads --config and applies the global flags and the folder
// argument on top of it, then installs the logger.
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}
	if c.IsSet("workers") {
		cfg.Corpus.Workers = c.Int("workers")
	}
	if root != "" {
		cfg.Corpus.Root = root
	}
	if cfg.Corpus.Root == "" {
		return nil, fmt.Errorf("no folder given and corpus.root is not configured")
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: docsearch search <folder> <query...>", 2)
	}
	cfg, err := loadConfig(c, c.Args().First())
	if err != nil {
		return err
	}
	query := strings.Join(c.Args().Tail(), " ")

	corp, err := service.LoadCorpus(c.Context, cfg, nil)
	if err != nil {
		return err
	}
	results := corp.Classify(tokenizer.Tokenize(query))
	if limit := c.Int("limit"); limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	slog.Debug("search finished", "query", query, "results", len(results))
	for _, r := range results {
		fmt.Fprintf(c.App.Writer, "%s\t%v\n", r.Path, r.Score)
	}
	return nil
}

func indexCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: docsearch index <folder>", 2)
	}
	cfg, err := loadConfig(c, c.Args().First())
	if err != nil {
		return err
	}
	corp, err := service.LoadCorpus(c.Context, cfg, nil)
	if err != nil {
		return err
	}
	stats := corp.Stats()
	fmt.Fprintf(c.App.Writer, "documents\t%d\nterms\t%d\nlanguage\t%s\nsource\t%s\nskipped\t%d\n",
		corp.Len(), corp.TermCount(), corp.Language, stats.Source, stats.FilesSkipped)
	return nil
}

func serveCommand(c *cli.Context) error {
	if c.NArg() > 1 {
		return cli.Exit("usage: docsearch serve <folder>", 2)
	}
	cfg, err := loadConfig(c, c.Args().First())
	if err != nil {
		return err
	}
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	corp, err := service.LoadCorpus(ctx, cfg, m)
	if err != nil {
		return err
	}
	return service.New(ctx, cfg, corp, m).Run(ctx)
}
