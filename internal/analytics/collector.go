package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/kafka"
)

// Publisher ships batches of events somewhere outside the process.
type Publisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// Collector records every event in the Aggregator straight away and, when a
// Publisher is set, queues it for batched publishing. A full queue drops
// the event for the publisher only.
type Collector struct {
	aggregator    *Aggregator
	publisher     Publisher
	eventCh       chan kafka.Event
	batchSize     int
	flushInterval time.Duration
	maxRetained   int

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
	logger  *slog.Logger
}

// NewCollector returns a Collector feeding agg. publisher may be nil.
func NewCollector(agg *Aggregator, publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		aggregator:    agg,
		publisher:     publisher,
		eventCh:       make(chan kafka.Event, bufferSize),
		batchSize:     100,
		flushInterval: time.Second,
		maxRetained:   300,
		done:          make(chan struct{}),
		logger:        slog.Default().With("component", "analytics-collector"),
	}
}

// Start launches the publish loop. It is a no-op without a publisher.
func (c *Collector) Start(ctx context.Context) {
	if c.publisher == nil {
		return
	}
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	go c.loop(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
	)
}

func (c *Collector) Aggregator() *Aggregator {
	return c.aggregator
}

func (c *Collector) Track(event SearchEvent) {
	if event.Type == "" {
		event.Type = EventSearch
		if event.TotalHits == 0 {
			event.Type = EventZeroResult
		}
	}
	c.aggregator.RecordSearch(event)
	c.enqueue(kafka.Event{Key: event.Query, Type: string(event.Type), Value: event})
}

func (c *Collector) TrackCorpus(event CorpusEvent) {
	if event.Type == "" {
		event.Type = EventCorpusLoaded
	}
	c.aggregator.RecordCorpus(event)
	c.enqueue(kafka.Event{Key: event.Root, Type: string(event.Type), Value: event})
}

func (c *Collector) enqueue(event kafka.Event) {
	if c.publisher == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)", "type", event.Type)
	}
}

// Close stops accepting events, publishes what is queued and waits for the
// loop to exit.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	started := c.started
	close(c.eventCh)
	c.mu.Unlock()
	if started {
		<-c.done
	}
}

func (c *Collector) loop(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := c.publisher.Publish(ctx, batch...); err != nil {
			c.logger.Error("analytics batch publish failed", "events", len(batch), "error", err)
			if len(batch) > c.maxRetained {
				c.logger.Warn("analytics events dropped", "dropped", len(batch)-c.maxRetained)
				batch = append(batch[:0], batch[len(batch)-c.maxRetained:]...)
			}
			return
		}
		batch = batch[:0]
	}
	finalFlush := func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		flush(flushCtx)
	}

	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				finalFlush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			for {
				select {
				case event, ok := <-c.eventCh:
					if !ok {
						finalFlush()
						return
					}
					batch = append(batch, event)
				default:
					finalFlush()
					return
				}
			}
		}
	}
}
