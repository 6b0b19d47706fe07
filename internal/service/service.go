// Package service wires a built corpus into the HTTP search service: the
// optional Redis cache, the analytics collector with its Kafka and
// Postgres sinks, health checks and the middleware chain.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/analytics/store"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/redis"
)

// LoadCorpus builds or loads the corpus for cfg.Corpus.Root. m may be nil.
func LoadCorpus(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*corpus.Corpus, error) {
	resources, err := language.LoadResources(cfg.Corpus.StopWordsDir)
	if err != nil {
		return nil, err
	}
	return corpus.FromFolder(ctx, cfg.Corpus.Root,
		corpus.WithWorkers(cfg.Corpus.Workers),
		corpus.WithCacheFile(cfg.Corpus.CacheFile),
		corpus.WithResources(resources),
		corpus.WithMetrics(m),
	)
}

// Service is the search HTTP service for one corpus.
type Service struct {
	cfg       *config.Config
	corpus    *corpus.Corpus
	metrics   *metrics.Metrics
	collector *analytics.Collector
	store     *store.Store
	checker   *health.Checker
	handler   http.Handler
	closers   []func() error
	logger    *slog.Logger
}

// New connects the optional backends enabled in cfg and builds the handler
// chain. A backend that cannot be reached is logged and left out; only the
// corpus is required. m may be nil.
func New(ctx context.Context, cfg *config.Config, c *corpus.Corpus, m *metrics.Metrics) *Service {
	s := &Service{
		cfg:     cfg,
		corpus:  c,
		metrics: m,
		checker: health.NewChecker(),
		logger:  slog.Default().With("component", "search-service"),
	}

	s.checker.Register("corpus", func(context.Context) health.ComponentHealth {
		if c.Len() == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "corpus is empty"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", c.Len())}
	})

	queryCache := s.connectRedis(ctx)

	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		publisher = producer
		s.closers = append(s.closers, producer.Close)
		s.logger.Info("search events published to kafka", "topic", cfg.Kafka.Topics.SearchEvents)
	}
	aggregator := analytics.NewAggregator()
	s.collector = analytics.NewCollector(aggregator, publisher, cfg.Analytics.BufferSize)

	s.connectPostgres(ctx, aggregator)

	h := handler.New(executor.New(c), handler.Config{
		Cache:        queryCache,
		Collector:    s.collector,
		Metrics:      m,
		Corpus:       corpusInfo(cfg.Corpus.Root, c),
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	})
	analyticsHandler := analytics.NewHandler(aggregator)

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	if s.store != nil {
		mux.HandleFunc("GET /api/v1/analytics/history", s.store.History)
	}
	mux.HandleFunc("GET /health/live", s.checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", s.checker.ReadyHandler())

	var chain http.Handler = mux
	if cfg.Server.WriteTimeout > 0 {
		chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	}
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.AccessLog(chain)
	chain = middleware.RequestID(chain)
	s.handler = chain
	return s
}

func (s *Service) connectRedis(ctx context.Context) *cache.QueryCache {
	if !s.cfg.Redis.Enabled {
		return nil
	}
	client, err := pkgredis.NewClient(ctx, s.cfg.Redis)
	if err != nil {
		s.logger.Warn("redis unavailable, search caching disabled", "error", err)
		return nil
	}
	s.closers = append(s.closers, client.Close)
	s.checker.RegisterOptional("redis", health.Ping(client.Ping))
	s.logger.Info("search cache enabled", "addr", s.cfg.Redis.Addr, "ttl", s.cfg.Redis.CacheTTL)
	return cache.New(client, s.cfg.Redis.CacheTTL, s.cfg.Corpus.Root, s.metrics)
}

func (s *Service) connectPostgres(ctx context.Context, agg *analytics.Aggregator) {
	if !s.cfg.Postgres.Enabled {
		return
	}
	db, err := postgres.New(ctx, s.cfg.Postgres)
	if err != nil {
		s.logger.Warn("postgres unavailable, analytics snapshots disabled", "error", err)
		return
	}
	st := store.New(db, s.cfg.Corpus.Root)
	if err := st.EnsureSchema(ctx); err != nil {
		s.logger.Warn("analytics schema setup failed, snapshots disabled", "error", err)
		_ = db.Close()
		return
	}
	prev, err := st.Latest(ctx)
	switch {
	case err != nil:
		s.logger.Warn("loading previous analytics snapshot failed", "error", err)
	case prev != nil:
		agg.Seed(*prev)
		s.logger.Info("analytics seeded from snapshot", "total_searches", prev.TotalSearches)
	}
	s.store = st
	s.closers = append(s.closers, db.Close)
	s.checker.RegisterOptional("postgres", health.Ping(db.Ping))
}

func corpusInfo(root string, c *corpus.Corpus) handler.CorpusInfo {
	return handler.CorpusInfo{
		Root:      root,
		Documents: c.Len(),
		Terms:     c.TermCount(),
		Language:  string(c.Language),
		Build:     c.Stats(),
	}
}

// Handler returns the full middleware chain.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Collector returns the analytics collector fed by search requests.
func (s *Service) Collector() *analytics.Collector {
	return s.collector
}

// Run serves until ctx is cancelled, then shuts down gracefully and
// releases every backend.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		s.Close()
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.collector.Start(ctx)
	s.trackCorpus()

	var wg sync.WaitGroup
	if s.store != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.store.Run(ctx, s.collector.Aggregator(), s.cfg.Analytics.SnapshotInterval)
		}()
	}

	if s.cfg.Metrics.Enabled {
		shutdownMetrics, err := metrics.StartServer(s.cfg.Server.Host, s.cfg.Metrics.Port)
		if err != nil {
			s.logger.Warn("metrics server disabled", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
				defer cancel()
				_ = shutdownMetrics(shutdownCtx)
			}()
		}
	}

	server := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("search service listening",
			"addr", ln.Addr().String(),
			"documents", s.corpus.Len(),
		)
		errCh <- server.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		serveErr = err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown error", "error", err)
		}
		cancelShutdown()
		serveErr = <-errCh
	}
	cancel()
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", serveErr)
	}
	s.logger.Info("search service stopped")
	return nil
}

func (s *Service) trackCorpus() {
	stats := s.corpus.Stats()
	s.collector.TrackCorpus(analytics.CorpusEvent{
		Root:         s.cfg.Corpus.Root,
		Source:       stats.Source,
		Documents:    s.corpus.Len(),
		Terms:        s.corpus.TermCount(),
		FilesSkipped: stats.FilesSkipped,
		DurationMs:   stats.Duration.Milliseconds(),
		Timestamp:    time.Now().UTC(),
	})
}

// Close flushes analytics and closes every backend connection. It is safe
// to call more than once.
func (s *Service) Close() {
	s.collector.Close()
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Warn("closing backend failed", "error", err)
		}
	}
	s.closers = nil
}
