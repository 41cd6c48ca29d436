// Package registry stores the single phone number registered for SMS alerts.
// An absent registration is a valid state: alerts are simply disabled.
package registry

import (
	"errors"
	"log/slog"
	"os"
	"strings"
)

// ErrEmpty is returned when the submitted phone number is blank.
var ErrEmpty = errors.New("phone number cannot be empty")

// ErrTooShort is returned when the normalized number has too few digits.
var ErrTooShort = errors.New("phone number is too short")

// Normalize canonicalizes a phone number: a leading +, digits only, minimum
// length 10. Anything else is rejected.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmpty
	}

	raw = strings.TrimPrefix(raw, "+")

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	normalized := "+" + digits.String()
	if len(normalized) < 10 {
		return "", ErrTooShort
	}

	return normalized, nil
}

// FileStore keeps the registered number in a plain text file.
type FileStore struct {
	path string
	log  *slog.Logger
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Get returns the registered number, or ok=false when none is registered or
// the file cannot be read.
func (s *FileStore) Get() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("read registered phone", slog.String("path", s.path), slog.Any("err", err))
		}
		return "", false
	}

	phone := strings.TrimSpace(string(data))
	if phone == "" {
		return "", false
	}
	return phone, true
}

// Set normalizes and persists the number, overwriting any previous
// registration. Returns the normalized number on success.
func (s *FileStore) Set(raw string) (string, error) {
	phone, err := Normalize(raw)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(s.path, []byte(phone), 0o644); err != nil {
		s.log.Error("write registered phone", slog.String("path", s.path), slog.Any("err", err))
		return "", err
	}

	return phone, nil
}
