// Package history persists the ledger of alerts already sent, so an item
// never triggers a second SMS. The ledger is append-only for the lifetime of
// the deployment; pruning would change dedup semantics. Unbounded growth is a
// known limitation and would need an external archival policy.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// History is the in-memory snapshot of the alert ledger: the set of identity
// keys already alerted on and the time of the most recent check. LastCheck is
// advisory only; it is recorded but never used to filter records.
type History struct {
	keys      map[string]struct{}
	order     []string
	LastCheck *time.Time
}

// NewHistory returns an empty ledger.
func NewHistory() *History {
	return &History{keys: make(map[string]struct{})}
}

// Has reports whether the key has already been alerted on.
func (h *History) Has(key string) bool {
	_, ok := h.keys[key]
	return ok
}

// Add records a key. Duplicate adds are no-ops.
func (h *History) Add(key string) {
	if _, ok := h.keys[key]; ok {
		return
	}
	h.keys[key] = struct{}{}
	h.order = append(h.order, key)
}

// Len returns the number of alerted keys.
func (h *History) Len() int {
	return len(h.keys)
}

// Key serializes a (source, headline) identity to a stable string. The
// length prefix makes the encoding unambiguous: a source or headline
// containing the separator cannot collide with a different pair.
func Key(source, headline string) string {
	return fmt.Sprintf("%d:%s:%s", len(source), source, headline)
}

// fileHistory is the on-disk JSON shape.
type fileHistory struct {
	AlertsSent []string   `json:"alerts_sent"`
	LastCheck  *time.Time `json:"last_check"`
}

// FileStore persists the ledger as a single JSON document, overwriting the
// previous snapshot on every save. It assumes a single writer; concurrent
// dispatcher invocations must be serialized by the caller.
type FileStore struct {
	path string
	log  *slog.Logger
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Load reads the ledger from disk. It never fails the caller: an absent,
// unreadable, or structurally invalid file yields a fresh empty ledger.
func (s *FileStore) Load() *History {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("read alert history, starting fresh", slog.String("path", s.path), slog.Any("err", err))
		}
		return NewHistory()
	}

	var fh fileHistory
	if err := json.Unmarshal(data, &fh); err != nil {
		s.log.Warn("decode alert history, starting fresh", slog.String("path", s.path), slog.Any("err", err))
		return NewHistory()
	}

	h := NewHistory()
	for _, key := range fh.AlertsSent {
		h.Add(key)
	}
	h.LastCheck = fh.LastCheck
	return h
}

// Save overwrites the persisted ledger with the given snapshot. Failures are
// logged and swallowed: the alerts were already sent (or not), and losing a
// history update is preferable to failing the batch. A crash between a send
// and a save can therefore cause one duplicate alert on the next run.
func (s *FileStore) Save(h *History) {
	fh := fileHistory{
		AlertsSent: append([]string(nil), h.order...),
		LastCheck:  h.LastCheck,
	}
	if fh.AlertsSent == nil {
		fh.AlertsSent = []string{}
	}

	data, err := json.Marshal(fh)
	if err != nil {
		s.log.Error("encode alert history", slog.Any("err", err))
		return
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Error("write alert history", slog.String("path", s.path), slog.Any("err", err))
	}
}
