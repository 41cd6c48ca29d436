// Package alert orchestrates the alerting pipeline: classify a batch of
// records, skip everything already alerted on, send SMS for the rest, and
// persist the updated ledger. It also builds and sends ranked digests, which
// deliberately ignore the ledger.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/secwatch/cyber-alert-radar/backend/internal/classify"
	"github.com/secwatch/cyber-alert-radar/backend/internal/history"
	"github.com/secwatch/cyber-alert-radar/backend/internal/models"
	"github.com/secwatch/cyber-alert-radar/backend/internal/notify"
)

// HistoryStore is the persistence boundary for the alert ledger. Load never
// fails (it falls back to an empty ledger) and Save swallows errors.
type HistoryStore interface {
	Load() *history.History
	Save(*history.History)
}

// Dispatcher runs batch alert checks against injected collaborators. It
// assumes at most one concurrent invocation; callers must serialize.
type Dispatcher struct {
	history HistoryStore
	sender  notify.Sender
	log     *slog.Logger
}

// New builds a dispatcher around its collaborators.
func New(hs HistoryStore, sender notify.Sender, log *slog.Logger) *Dispatcher {
	return &Dispatcher{history: hs, sender: sender, log: log}
}

// CheckForAlerts classifies a batch and sends an SMS for each newly critical
// item. Returns the critical items found and whether at least one send
// succeeded. With no destination it is a pure no-op: no history is read or
// written. A failed send leaves the item out of the ledger so it is retried
// on the next run; one failure never aborts the batch.
func (d *Dispatcher) CheckForAlerts(ctx context.Context, records []models.NewsRecord, phone string) ([]models.NewsRecord, bool) {
	if strings.TrimSpace(phone) == "" {
		d.log.Warn("no phone number registered for alerts")
		return nil, false
	}

	h := d.history.Load()

	var critical []models.NewsRecord
	sent := 0

	for _, rec := range records {
		key := history.Key(rec.Source, rec.Headline)
		if h.Has(key) {
			continue
		}

		verdict := classify.Classify(rec)
		if !verdict.Critical {
			continue
		}

		d.log.Info("critical news detected",
			slog.String("headline", rec.Headline),
			slog.String("reason", verdict.Reason),
		)
		critical = append(critical, rec)

		if err := d.sender.Send(ctx, phone, FormatAlertMessage(rec)); err != nil {
			d.log.Warn("send alert failed, will retry next run",
				slog.String("headline", rec.Headline),
				slog.Any("err", err),
			)
			continue
		}

		h.Add(key)
		sent++
	}

	now := time.Now()
	h.LastCheck = &now
	d.history.Save(h)

	d.log.Info("alert check completed",
		slog.Int("critical", len(critical)),
		slog.Int("sent", sent),
	)

	return critical, sent > 0
}

// BuildDigest scores a batch and returns the records qualifying for a digest,
// sorted by descending score. Ties keep input order, and the result is
// truncated to maxItems. Alert history is not consulted: a digest summarizes
// the current top-N regardless of what has been individually alerted.
func BuildDigest(records []models.NewsRecord, maxItems int) []models.ScoredRecord {
	var scored []models.ScoredRecord
	for _, rec := range records {
		score := classify.Score(rec)
		if score >= classify.DigestThreshold {
			scored = append(scored, models.ScoredRecord{NewsRecord: rec, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if maxItems > 0 && len(scored) > maxItems {
		scored = scored[:maxItems]
	}

	return scored
}

// SendDigest delivers a digest of the given items as a single SMS. Returns
// false without sending when there is nothing to report. History is untouched.
func (d *Dispatcher) SendDigest(ctx context.Context, phone string, items []models.ScoredRecord) bool {
	if len(items) == 0 {
		d.log.Info("no digest items to send")
		return false
	}

	if err := d.sender.Send(ctx, phone, FormatDigestMessage(items)); err != nil {
		d.log.Warn("send digest failed", slog.Any("err", err))
		return false
	}
	return true
}

// SendTest delivers the canned test message to verify the channel.
func (d *Dispatcher) SendTest(ctx context.Context, phone string) error {
	return d.sender.Send(ctx, phone, notify.TestMessage)
}

// FormatAlertMessage renders one record as a concise SMS body.
func FormatAlertMessage(rec models.NewsRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SECURITY ALERT: %s\n\n%s", rec.Source, rec.Headline)
	if !rec.Date.IsZero() {
		fmt.Fprintf(&b, "\n\nDate: %s", rec.Date.Format("2006-01-02"))
	}
	if rec.URL != "" {
		fmt.Fprintf(&b, "\n\nMore info: %s", rec.URL)
	}
	return b.String()
}

// FormatDigestMessage renders the top three items plus a remainder count.
func FormatDigestMessage(items []models.ScoredRecord) string {
	var b strings.Builder
	b.WriteString("SECURITY DIGEST: Top Critical News\n\n")

	top := items
	if len(top) > 3 {
		top = top[:3]
	}
	for i, item := range top {
		fmt.Fprintf(&b, "%d. %s: %s", i+1, item.Source, item.Headline)
		if !item.Date.IsZero() {
			fmt.Fprintf(&b, " (%s)", item.Date.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}

	if rest := len(items) - len(top); rest > 0 {
		fmt.Fprintf(&b, "\n+%d more critical alerts.", rest)
	}

	return b.String()
}
