package registry_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/secwatch/cyber-alert-radar/backend/internal/registry"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "already normalized", input: "+919876543210", want: "+919876543210"},
		{name: "missing plus", input: "919876543210", want: "+919876543210"},
		{name: "spaces and dashes", input: "+91 98765-43210", want: "+919876543210"},
		{name: "empty", input: "   ", wantErr: registry.ErrEmpty},
		{name: "too short", input: "+12345", wantErr: registry.ErrTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Normalize(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	store := registry.NewFileStore(filepath.Join(t.TempDir(), "alert_phone.txt"), discard())

	_, ok := store.Get()
	require.False(t, ok)

	phone, err := store.Set("91 98765 43210")
	require.NoError(t, err)
	require.Equal(t, "+919876543210", phone)

	got, ok := store.Get()
	require.True(t, ok)
	require.Equal(t, phone, got)

	// Overwrite replaces the previous registration.
	phone, err = store.Set("+918000000000")
	require.NoError(t, err)
	got, _ = store.Get()
	require.Equal(t, "+918000000000", got)
	require.Equal(t, phone, got)
}
