package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Twilio carries SMS transport credentials. All three values must be present
// for alerts to be deliverable; an incomplete set disables sending.
type Twilio struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Complete reports whether every credential is set.
func (t Twilio) Complete() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// Alerting groups the persisted alert state shared by worker and API.
type Alerting struct {
	HistoryFile string
	PhoneFile   string
	Twilio      Twilio
}

// Worker holds configuration for the Kafka -> Elasticsearch ingest worker.
type Worker struct {
	Common
	Alerting
	KafkaBrokers     []string
	KafkaTopic       string
	KafkaConsumer    string
	KeywordLimit     int
	KeywordMinLength int
	DedupeCapacity   int
	DedupeTTL        time.Duration
	AlertBatchSize   int
	AlertFlushEvery  time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Alerting
	BindAddr    string
	DefaultPage int
	MaxPage     int
	ScanWindow  time.Duration
	ScanSize    int
	DigestMax   int
}

// Digest configures the periodic digest sender.
type Digest struct {
	Common
	Alerting
	Interval time.Duration
	Window   time.Duration
	MaxItems int
}

// Retention configures the news-index cleanup loop. It never touches the
// alert history file, which is append-only by design.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:           loadCommon(),
		Alerting:         loadAlerting(),
		KafkaBrokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "news_raw"),
		KafkaConsumer:    getEnv("KAFKA_CONSUMER_GROUP", "news-worker"),
		KeywordLimit:     getInt("WORKER_KEYWORD_LIMIT", 8),
		KeywordMinLength: getInt("WORKER_KEYWORD_MIN_LEN", 4),
		DedupeCapacity:   getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:        getDuration("WORKER_DEDUPE_TTL", "24h"),
		AlertBatchSize:   getInt("WORKER_ALERT_BATCH_SIZE", 25),
		AlertFlushEvery:  getDuration("WORKER_ALERT_FLUSH_INTERVAL", "1m"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.KeywordLimit <= 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_LIMIT must be positive")
	}
	if c.KeywordMinLength < 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_MIN_LEN cannot be negative")
	}
	if c.AlertBatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_ALERT_BATCH_SIZE must be positive")
	}
	if c.AlertFlushEvery <= 0 {
		return nil, fmt.Errorf("WORKER_ALERT_FLUSH_INTERVAL must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:      loadCommon(),
		Alerting:    loadAlerting(),
		BindAddr:    getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage: getInt("API_PAGE_SIZE", 20),
		MaxPage:     getInt("API_MAX_PAGE_SIZE", 100),
		ScanWindow:  getDuration("API_ALERT_SCAN_WINDOW", "24h"),
		ScanSize:    getInt("API_ALERT_SCAN_SIZE", 200),
		DigestMax:   getInt("API_DIGEST_MAX_ITEMS", 5),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.ScanWindow <= 0 {
		return nil, fmt.Errorf("API_ALERT_SCAN_WINDOW must be positive")
	}
	if c.ScanSize <= 0 {
		return nil, fmt.Errorf("API_ALERT_SCAN_SIZE must be positive")
	}
	if c.DigestMax <= 0 {
		return nil, fmt.Errorf("API_DIGEST_MAX_ITEMS must be positive")
	}

	return c, nil
}

// LoadDigest builds a Digest config from environment variables.
func LoadDigest() (*Digest, error) {
	c := &Digest{
		Common:   loadCommon(),
		Alerting: loadAlerting(),
		Interval: getDuration("DIGEST_INTERVAL", "24h"),
		Window:   getDuration("DIGEST_WINDOW", "24h"),
		MaxItems: getInt("DIGEST_MAX_ITEMS", 5),
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("DIGEST_INTERVAL must be positive")
	}
	if c.Window <= 0 {
		return nil, fmt.Errorf("DIGEST_WINDOW must be positive")
	}
	if c.MaxItems <= 0 {
		return nil, fmt.Errorf("DIGEST_MAX_ITEMS must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_INTERVAL", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "2160h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "cyber_news"),
	}
}

func loadAlerting() Alerting {
	return Alerting{
		HistoryFile: getEnv("ALERT_HISTORY_FILE", "alert_history.json"),
		PhoneFile:   getEnv("ALERT_PHONE_FILE", "alert_phone.txt"),
		Twilio: Twilio{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
