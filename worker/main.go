package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/secwatch/cyber-alert-radar/backend/internal/alert"
	"github.com/secwatch/cyber-alert-radar/backend/internal/classify"
	"github.com/secwatch/cyber-alert-radar/backend/internal/config"
	"github.com/secwatch/cyber-alert-radar/backend/internal/dedupe"
	"github.com/secwatch/cyber-alert-radar/backend/internal/elasticsearch"
	"github.com/secwatch/cyber-alert-radar/backend/internal/history"
	"github.com/secwatch/cyber-alert-radar/backend/internal/logger"
	"github.com/secwatch/cyber-alert-radar/backend/internal/models"
	"github.com/secwatch/cyber-alert-radar/backend/internal/notify"
	"github.com/secwatch/cyber-alert-radar/backend/internal/processing"
	"github.com/secwatch/cyber-alert-radar/backend/internal/registry"
)

// rawNews is the payload shape produced by the scraping/normalization stage.
type rawNews struct {
	Source   string `json:"source"`
	Headline string `json:"headline"`
	Content  string `json:"content"`
	Date     string `json:"date"`
	URL      string `json:"url"`
}

type newsIndexer interface {
	IndexNews(ctx context.Context, doc models.NewsDocument) error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)
	phones := registry.NewFileStore(cfg.PhoneFile, log)
	dispatcher := alert.New(
		history.NewFileStore(cfg.HistoryFile, log),
		notify.FromConfig(cfg.Twilio, log),
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.KafkaTopic+"_dlq"),
	)

	// Records are indexed as they arrive but alert checks run on batches, so
	// the history file is loaded and saved once per batch rather than per
	// message. A batch flushes when it fills or when the topic goes quiet
	// for the flush interval.
	var pending []models.NewsRecord

	flush := func() {
		if len(pending) == 0 {
			return
		}
		phone, _ := phones.Get()
		dispatcher.CheckForAlerts(ctx, pending, phone)
		pending = nil
	}
	defer flush()

	for {
		fetchCtx, cancel := context.WithTimeout(ctx, cfg.AlertFlushEvery)
		msg, err := reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				flush()
				continue
			}
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		rec, err := processMessage(ctx, log, esClient, cache, cfg, msg)
		if err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			if !sendToDLQ(ctx, log, dlqWriter, msg, err) {
				// Skip the commit so the message is reprocessed on restart.
				continue
			}
		} else if rec != nil {
			pending = append(pending, *rec)
			if len(pending) >= cfg.AlertBatchSize {
				flush()
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// processMessage validates, filters, classifies, and indexes one message.
// It returns the normalized record when the item is new and relevant, nil
// when it was dropped (irrelevant or duplicate), and an error only for
// payloads that belong on the DLQ.
func processMessage(ctx context.Context, log *slog.Logger, idx newsIndexer, cache *dedupe.Cache, cfg *config.Worker, msg kafka.Message) (*models.NewsRecord, error) {
	var payload rawNews
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return nil, err
	}

	source := strings.TrimSpace(payload.Source)
	headline := strings.TrimSpace(payload.Headline)
	content := strings.TrimSpace(payload.Content)
	if headline == "" && content == "" {
		return nil, errors.New("empty payload")
	}
	if headline == "" {
		headline = processing.GenerateHeadline(content, 10)
	}
	if source == "" {
		source = "Unknown"
	}

	if !processing.IsSecurityRelated(headline, content, source) {
		log.Debug("not security related, dropping", slog.String("headline", headline))
		return nil, nil
	}

	key := history.Key(source, headline)
	if cache.Observe(key) {
		log.Debug("duplicate news", slog.String("headline", headline))
		return nil, nil
	}

	ts := processing.ParseDate(payload.Date)
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	rec := models.NewsRecord{
		Source:   source,
		Headline: headline,
		Content:  content,
		Date:     ts,
		URL:      strings.TrimSpace(payload.URL),
	}

	verdict := classify.Classify(rec)

	doc := models.NewsDocument{
		ID:       processing.BuildDocumentID(source, headline),
		Source:   source,
		Headline: headline,
		Content:  content,
		Date:     ts,
		URL:      rec.URL,
		Keywords: processing.ExtractKeywords(headline+" "+content, cfg.KeywordLimit, cfg.KeywordMinLength),
		Critical: verdict.Critical,
		Reason:   verdict.Reason,
		Score:    verdict.Score,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	if err := idx.IndexNews(ctx, doc); err != nil {
		return nil, err
	}

	log.Info("indexed news",
		slog.String("id", doc.ID),
		slog.String("headline", doc.Headline),
		slog.Bool("critical", doc.Critical),
		slog.Int("score", doc.Score),
	)
	return &rec, nil
}

// sendToDLQ writes a failed message to the dead-letter topic with error
// context, retrying with exponential backoff. Returns true when the write
// succeeded and the original message can be committed.
func sendToDLQ(ctx context.Context, log *slog.Logger, w *kafka.Writer, msg kafka.Message, cause error) bool {
	dlqMsg := kafka.Message{
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := range 5 {
		if err := w.WriteMessages(ctx, dlqMsg); err == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)
			return true
		} else {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			log.Warn("DLQ write failed, retrying",
				slog.Any("err", err),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return false
			}
		}
	}

	log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)
	return false
}
