// Package rebuilder turns catalog change events into similarity index
// rebuilds. Bursts of events are debounced into a single rebuild: the
// engine's idf table depends on the whole corpus, so there is no cheaper
// incremental path, and coalescing keeps a batch import from paying the
// full rebuild cost per record.
package rebuilder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediasearch/similarity-service/internal/catalog"
	"github.com/mediasearch/similarity-service/internal/engine"
	"github.com/mediasearch/similarity-service/pkg/config"
	"github.com/mediasearch/similarity-service/pkg/kafka"
	"github.com/mediasearch/similarity-service/pkg/metrics"
	"github.com/mediasearch/similarity-service/pkg/resilience"
)

// CorpusLoader supplies the read snapshot of the catalog. *catalog.Store
// satisfies it.
type CorpusLoader interface {
	List(ctx context.Context) ([]catalog.Record, error)
}

// Invalidator drops cached rankings after a rebuild. *cache.ResultCache
// satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Rebuilder owns the rebuild loop. Request is safe for concurrent use;
// rebuilds themselves run serially on the Run goroutine.
type Rebuilder struct {
	loader  CorpusLoader
	engine  *engine.Engine
	cache   Invalidator
	metrics *metrics.Metrics
	cfg     config.RebuildConfig
	trigger chan string
	logger  *slog.Logger
}

// New creates a Rebuilder. cache and m may be nil.
func New(loader CorpusLoader, eng *engine.Engine, cache Invalidator, m *metrics.Metrics, cfg config.RebuildConfig) *Rebuilder {
	return &Rebuilder{
		loader:  loader,
		engine:  eng,
		cache:   cache,
		metrics: m,
		cfg:     cfg,
		trigger: make(chan string, 1),
		logger:  slog.Default().With("component", "rebuilder"),
	}
}

// Request asks for a rebuild. It never blocks; if one is already pending
// the request coalesces into it.
func (r *Rebuilder) Request(reason string) {
	select {
	case r.trigger <- reason:
	default:
	}
}

// RebuildNow performs a rebuild immediately, bypassing the debounce. Used
// at startup and by the manual rebuild endpoint's synchronous path.
func (r *Rebuilder) RebuildNow(ctx context.Context, trigger string) error {
	return r.rebuild(ctx, trigger)
}

// Run processes rebuild requests until ctx is cancelled. Each request arms
// a debounce timer; further requests while armed extend the window.
func (r *Rebuilder) Run(ctx context.Context) error {
	r.logger.Info("rebuilder started", "debounce", r.cfg.Debounce)
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			r.logger.Info("rebuilder stopping", "reason", ctx.Err())
			return nil
		case reason := <-r.trigger:
			pending = reason
			if timer == nil {
				timer = time.NewTimer(r.cfg.Debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-fire
				}
				timer.Reset(r.cfg.Debounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			if err := r.rebuild(ctx, pending); err != nil {
				r.logger.Error("rebuild failed", "trigger", pending, "error", err)
			}
		}
	}
}

func (r *Rebuilder) rebuild(ctx context.Context, trigger string) error {
	var records []catalog.Record
	err := resilience.WithTimeout(ctx, r.cfg.LoadTimeout, "corpus load", func(ctx context.Context) error {
		var loadErr error
		records, loadErr = r.loader.List(ctx)
		return loadErr
	})
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	docs := make([]engine.Document, len(records))
	for i, rec := range records {
		docs[i] = engine.Document{
			ID:          rec.ID,
			Title:       rec.Title,
			Description: rec.Description,
			Genres:      rec.Genres,
		}
	}
	stats := r.engine.Rebuild(docs)

	if r.metrics != nil {
		r.metrics.RebuildsTotal.WithLabelValues(trigger).Inc()
		r.metrics.RebuildDuration.Observe(stats.Duration.Seconds())
		r.metrics.CorpusSize.Set(float64(stats.Records))
		r.metrics.VocabularySize.Set(float64(stats.Terms))
		r.metrics.VectorDims.Set(float64(stats.Dimensions))
	}
	if r.cache != nil {
		r.cache.Invalidate(ctx)
	}
	r.logger.Info("rebuild complete",
		"trigger", trigger,
		"records", stats.Records,
		"terms", stats.Terms,
		"duration", stats.Duration,
	)
	return nil
}

// HandleChangeEvent returns a Kafka MessageHandler that decodes catalog
// change events and requests a rebuild for each.
func HandleChangeEvent(r *Rebuilder) kafka.MessageHandler {
	logger := slog.Default().With("component", "rebuilder")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[catalog.ChangeEvent](value)
		if err != nil {
			// Malformed events are logged and skipped, not retried.
			logger.Error("failed to decode change event", "error", err, "key", string(key))
			return nil
		}
		logger.Debug("change event received", "type", event.Type, "record_id", event.RecordID)
		r.Request(event.Type)
		return nil
	}
}
