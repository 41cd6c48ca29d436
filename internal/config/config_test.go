package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/secwatch/cyber-alert-radar/backend/internal/config"
)

func clearCommonEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ELASTICSEARCH_ADDR", "ELASTICSEARCH_INDEX",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_CONSUMER_GROUP",
		"ALERT_HISTORY_FILE", "ALERT_PHONE_FILE",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadWorkerDefaults(t *testing.T) {
	clearCommonEnv(t)

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "cyber_news", cfg.ElasticsearchIndex)
	require.Len(t, cfg.KafkaBrokers, 1)
	require.Equal(t, "kafka:9092", cfg.KafkaBrokers[0])
	require.Equal(t, "news_raw", cfg.KafkaTopic)
	require.Equal(t, "news-worker", cfg.KafkaConsumer)
	require.Equal(t, "alert_history.json", cfg.HistoryFile)
	require.Equal(t, "alert_phone.txt", cfg.PhoneFile)
	require.False(t, cfg.Twilio.Complete())
}

func TestLoadWorkerOverrides(t *testing.T) {
	clearCommonEnv(t)
	t.Setenv("ELASTICSEARCH_ADDR", "http://localhost:9999")
	t.Setenv("ELASTICSEARCH_INDEX", "custom")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092,broker-b:29093")
	t.Setenv("KAFKA_TOPIC", "custom_topic")
	t.Setenv("KAFKA_CONSUMER_GROUP", "custom-group")
	t.Setenv("WORKER_KEYWORD_LIMIT", "12")
	t.Setenv("WORKER_KEYWORD_MIN_LEN", "5")
	t.Setenv("WORKER_DEDUPE_CAPACITY", "5")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")
	t.Setenv("WORKER_ALERT_BATCH_SIZE", "3")
	t.Setenv("WORKER_ALERT_FLUSH_INTERVAL", "30s")
	t.Setenv("ALERT_HISTORY_FILE", "/var/lib/radar/history.json")
	t.Setenv("TWILIO_ACCOUNT_SID", "sid")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("TWILIO_PHONE_NUMBER", "+1000000000")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9999", cfg.ElasticsearchAddr)
	require.Equal(t, "custom", cfg.ElasticsearchIndex)
	require.Len(t, cfg.KafkaBrokers, 2)
	require.Equal(t, "broker-a:29092", cfg.KafkaBrokers[0])
	require.Equal(t, "custom_topic", cfg.KafkaTopic)
	require.Equal(t, "custom-group", cfg.KafkaConsumer)
	require.Equal(t, 12, cfg.KeywordLimit)
	require.Equal(t, 5, cfg.KeywordMinLength)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, 3, cfg.AlertBatchSize)
	require.Equal(t, 30*time.Second, cfg.AlertFlushEvery)
	require.Equal(t, "/var/lib/radar/history.json", cfg.HistoryFile)
	require.True(t, cfg.Twilio.Complete())
}

func TestLoadAPI(t *testing.T) {
	clearCommonEnv(t)
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_PAGE_SIZE", "15")
	t.Setenv("API_MAX_PAGE_SIZE", "200")
	t.Setenv("API_ALERT_SCAN_WINDOW", "12h")
	t.Setenv("API_ALERT_SCAN_SIZE", "50")
	t.Setenv("ELASTICSEARCH_ADDR", "http://api-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "api-index")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 15, cfg.DefaultPage)
	require.Equal(t, 200, cfg.MaxPage)
	require.Equal(t, 12*time.Hour, cfg.ScanWindow)
	require.Equal(t, 50, cfg.ScanSize)
	require.Equal(t, "http://api-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "api-index", cfg.ElasticsearchIndex)
}

func TestLoadAPIRejectsPageOverMax(t *testing.T) {
	clearCommonEnv(t)
	t.Setenv("API_PAGE_SIZE", "300")
	t.Setenv("API_MAX_PAGE_SIZE", "100")

	_, err := config.LoadAPI()
	require.Error(t, err)
}

func TestLoadDigest(t *testing.T) {
	clearCommonEnv(t)
	t.Setenv("DIGEST_INTERVAL", "6h")
	t.Setenv("DIGEST_WINDOW", "12h")
	t.Setenv("DIGEST_MAX_ITEMS", "7")

	cfg, err := config.LoadDigest()
	require.NoError(t, err)
	require.Equal(t, 6*time.Hour, cfg.Interval)
	require.Equal(t, 12*time.Hour, cfg.Window)
	require.Equal(t, 7, cfg.MaxItems)
}

func TestLoadRetention(t *testing.T) {
	clearCommonEnv(t)
	t.Setenv("ELASTICSEARCH_ADDR", "http://ret-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "ret-index")
	t.Setenv("RETENTION_INTERVAL", "12h")
	t.Setenv("RETENTION_MAX_AGE", "36h")
	t.Setenv("RETENTION_BATCH_SIZE", "123")

	cfg, err := config.LoadRetention()
	require.NoError(t, err)

	require.Equal(t, 12*time.Hour, cfg.Interval)
	require.Equal(t, 36*time.Hour, cfg.MaxAge)
	require.Equal(t, 123, cfg.BatchSize)
	require.Equal(t, "http://ret-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "ret-index", cfg.ElasticsearchIndex)
}
