package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/corpus/snapshot"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/language"
	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/tracing"
)

// DefaultCacheFile is the snapshot name used when WithCacheFile is not given.
const DefaultCacheFile = ".docsearch.idx"

type builder struct {
	workers   int
	resources *language.Resources
	detector  language.Detector
	cacheFile string
	useCache  bool
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures FromFolder.
type Option func(*builder)

// WithWorkers sets the indexing pool size. Values below 1 mean
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(b *builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithResources supplies stop words and stemmers. Without it the lists
// embedded in the binary are used.
func WithResources(r *language.Resources) Option {
	return func(b *builder) {
		b.resources = r
	}
}

// WithDetector overrides per-document language detection.
func WithDetector(d language.Detector) Option {
	return func(b *builder) {
		b.detector = d
	}
}

// WithCacheFile sets the snapshot file name, relative to the root.
func WithCacheFile(name string) Option {
	return func(b *builder) {
		if name != "" {
			b.cacheFile = name
		}
	}
}

// WithoutCache neither reads nor writes a snapshot.
func WithoutCache() Option {
	return func(b *builder) {
		b.useCache = false
	}
}

// WithMetrics records build counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *builder) {
		b.metrics = m
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// FromFolder returns the corpus for root. An existing snapshot is loaded as
// is, and a snapshot that cannot be read is fatal rather than rebuilt.
// Otherwise the folder is discovered, indexed by a worker pool and the
// result is written back as the new snapshot. Files that fail to decode or
// are in an unsupported language are logged and skipped.
//
// ctx is honoured up to the start of indexing; a started build runs to
// completion.
func FromFolder(ctx context.Context, root string, opts ...Option) (*Corpus, error) {
	b := &builder{
		workers:   runtime.NumCPU(),
		cacheFile: DefaultCacheFile,
		useCache:  true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "corpus-builder", "root", root)
	return b.run(ctx, root)
}

func (b *builder) run(ctx context.Context, root string) (*Corpus, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "corpus", root)
	defer func() {
		span.End()
		span.Log(b.logger)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	cachePath := filepath.Join(root, b.cacheFile)
	if b.useCache {
		c, ok, err := b.load(ctx, cachePath)
		if err != nil {
			return nil, err
		}
		if ok {
			c.stats.Duration = time.Since(start)
			b.observe(c)
			return c, nil
		}
	}

	_, discoverSpan := tracing.Start(ctx, "discover", "")
	paths, err := discover(root)
	discoverSpan.SetAttr("files", len(paths))
	discoverSpan.End()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.resources == nil {
		b.resources, err = language.LoadResources("")
		if err != nil {
			return nil, err
		}
	}

	_, indexSpan := tracing.Start(ctx, "index", "")
	c, err := b.index(paths)
	indexSpan.SetAttr("docs", c.Len())
	indexSpan.End()
	if err != nil {
		return nil, err
	}
	c.stats.Duration = time.Since(start)

	if b.useCache {
		_, writeSpan := tracing.Start(ctx, "snapshot-write", "")
		err := snapshot.Write(cachePath, c.payload())
		writeSpan.End()
		if err != nil {
			b.logger.Error("writing corpus snapshot failed", "path", cachePath, "error", err)
			return nil, err
		}
	}

	b.observe(c)
	if b.metrics != nil {
		b.metrics.CorpusBuildDuration.Observe(c.stats.Duration.Seconds())
	}
	b.logger.Info("corpus built",
		"docs", c.Len(),
		"terms", c.TermCount(),
		"language", c.Language,
		"files_discovered", c.stats.FilesDiscovered,
		"files_skipped", c.stats.FilesSkipped,
		"duration_ms", c.stats.Duration.Milliseconds(),
	)
	return c, nil
}

func (b *builder) load(ctx context.Context, cachePath string) (*Corpus, bool, error) {
	exists, err := snapshot.Exists(cachePath)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", apperrors.ErrCorruptCache, cachePath, err)
	}
	if !exists {
		return nil, false, nil
	}
	_, span := tracing.Start(ctx, "snapshot-read", "")
	defer span.End()

	payload, header, err := snapshot.Read(cachePath)
	if err != nil {
		b.logger.Error("reading corpus snapshot failed", "path", cachePath, "error", err)
		return nil, false, err
	}
	c := fromPayload(payload)
	c.stats = BuildStats{Source: SourceCache, DocsIndexed: c.Len()}
	b.logger.Info("corpus loaded from snapshot",
		"path", cachePath,
		"docs", header.DocCount,
		"terms", header.TermCount,
		"language", c.Language,
	)
	return c, true, nil
}

type skipCounts struct {
	decode   atomic.Int64
	language atomic.Int64
}

// index runs one pool task per partition. Tasks send documents on a channel
// that only this goroutine reads, so the aggregator needs no locking.
func (b *builder) index(paths []string) (*Corpus, error) {
	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return newAggregator().corpus(), fmt.Errorf("%w: creating worker pool: %w", apperrors.ErrInternal, err)
	}
	defer pool.Release()

	indexer := document.NewIndexer(b.resources, document.WithDetector(b.detector))
	results := make(chan *document.Document, b.workers)
	var (
		wg        sync.WaitGroup
		skipped   skipCounts
		submitErr error
	)

	go func() {
		for _, part := range partition(paths, b.workers) {
			if len(part) == 0 {
				continue
			}
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				for _, path := range part {
					doc, err := indexer.Index(path)
					if err != nil {
						b.skip(path, err, &skipped)
						continue
					}
					results <- doc
				}
			}); err != nil {
				wg.Done()
				submitErr = err
				break
			}
		}
		wg.Wait()
		close(results)
	}()

	agg := newAggregator()
	for doc := range results {
		agg.add(doc)
	}
	c := agg.corpus()
	if submitErr != nil {
		return c, fmt.Errorf("%w: submitting indexing task: %w", apperrors.ErrInternal, submitErr)
	}

	langSkipped := int(skipped.language.Load())
	c.stats = BuildStats{
		Source:              SourceBuild,
		FilesDiscovered:     len(paths),
		DocsIndexed:         c.Len(),
		FilesSkipped:        int(skipped.decode.Load()) + langSkipped,
		UnsupportedLanguage: langSkipped,
	}
	return c, nil
}

func (b *builder) skip(path string, err error, counts *skipCounts) {
	reason := "decode"
	if document.IsUnsupportedLanguage(err) {
		reason = "language"
		counts.language.Add(1)
		b.logger.Info("language not supported", "path", path, "error", err)
	} else {
		counts.decode.Add(1)
		b.logger.Warn("skipping file", "path", path, "error", err)
	}
	if b.metrics != nil {
		b.metrics.FilesSkippedTotal.WithLabelValues(reason).Inc()
	}
}

func (b *builder) observe(c *Corpus) {
	if b.metrics == nil {
		return
	}
	b.metrics.CorpusLoadsTotal.WithLabelValues(c.stats.Source).Inc()
	b.metrics.CorpusDocuments.Set(float64(c.Len()))
	b.metrics.CorpusTerms.Set(float64(c.TermCount()))
	if c.stats.Source == SourceBuild {
		b.metrics.DocsIndexedTotal.Add(float64(c.stats.DocsIndexed))
	}
}
