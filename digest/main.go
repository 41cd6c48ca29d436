package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/secwatch/cyber-alert-radar/backend/internal/alert"
	"github.com/secwatch/cyber-alert-radar/backend/internal/config"
	"github.com/secwatch/cyber-alert-radar/backend/internal/elasticsearch"
	"github.com/secwatch/cyber-alert-radar/backend/internal/history"
	"github.com/secwatch/cyber-alert-radar/backend/internal/logger"
	"github.com/secwatch/cyber-alert-radar/backend/internal/models"
	"github.com/secwatch/cyber-alert-radar/backend/internal/notify"
	"github.com/secwatch/cyber-alert-radar/backend/internal/registry"
)

func main() {
	log := logger.New("digest")
	cfg, err := config.LoadDigest()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	phones := registry.NewFileStore(cfg.PhoneFile, log)
	dispatcher := alert.New(
		history.NewFileStore(cfg.HistoryFile, log),
		notify.FromConfig(cfg.Twilio, log),
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("digest job running",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("window", cfg.Window),
		slog.Int("max_items", cfg.MaxItems),
	)

	runOnce(ctx, log, esClient, phones, dispatcher, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, esClient, phones, dispatcher, cfg)
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, esClient *elasticsearch.Client, phones *registry.FileStore, dispatcher *alert.Dispatcher, cfg *config.Digest) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	phone, ok := phones.Get()
	if !ok {
		log.Warn("no phone registered, skipping digest run")
		return
	}

	docs, err := esClient.Recent(subCtx, cfg.Window, 500)
	if err != nil {
		log.Warn("digest run failed (will retry on next interval)", slog.Any("err", err))
		return
	}

	records := make([]models.NewsRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.Record())
	}

	items := alert.BuildDigest(records, cfg.MaxItems)
	if dispatcher.SendDigest(subCtx, phone, items) {
		log.Info("digest sent", slog.Int("items", len(items)))
	}
}
