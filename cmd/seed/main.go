// Command seed loads catalog records from a JSON file into PostgreSQL.
//
// Each inserted record publishes a record.created event to the catalog
// events topic so a running server rebuilds its index. Pass -no-events to
// skip publishing when Kafka is not available.
//
// Usage:
//
//	go run ./cmd/seed -file testdata/records.json [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mediasearch/similarity-service/internal/catalog"
	"github.com/mediasearch/similarity-service/pkg/config"
	"github.com/mediasearch/similarity-service/pkg/kafka"
	"github.com/mediasearch/similarity-service/pkg/logger"
	"github.com/mediasearch/similarity-service/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	filePath := flag.String("file", "", "path to JSON file of catalog records")
	noEvents := flag.Bool("no-events", false, "skip publishing change events to Kafka")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -file <records.json>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	records, err := catalog.LoadFile(*filePath)
	if err != nil {
		slog.Error("failed to load records file", "path", *filePath, "error", err)
		os.Exit(1)
	}
	slog.Info("loaded records", "path", *filePath, "count", len(records))

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := catalog.NewStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure catalog schema", "error", err)
		os.Exit(1)
	}

	var producer *kafka.Producer
	if !*noEvents {
		producer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CatalogEvents)
		defer producer.Close()
	}

	if err := store.CreateBatch(ctx, records); err != nil {
		slog.Error("batch insert failed, nothing was imported", "error", err)
		os.Exit(1)
	}
	if producer != nil {
		for _, r := range records {
			event := catalog.ChangeEvent{
				Type:       catalog.EventRecordCreated,
				RecordID:   r.ID,
				OccurredAt: time.Now().UTC(),
			}
			if err := producer.Publish(ctx, kafka.Event{
				Key:   fmt.Sprintf("%d", r.ID),
				Value: event,
			}); err != nil {
				slog.Warn("failed to publish change event", "record_id", r.ID, "error", err)
			}
		}
	}

	total, err := store.Count(ctx)
	if err != nil {
		slog.Warn("failed to count records", "error", err)
	}
	slog.Info("seeding complete", "inserted", len(records), "total", total)
}
