package dedupe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/secwatch/cyber-alert-radar/backend/internal/dedupe"
)

func TestObserveReportsDuplicates(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	require.False(t, cache.Observe("alpha"))
	require.True(t, cache.Observe("alpha"))
	require.Equal(t, 1, cache.Len())
}

func TestObserveTTLExpiry(t *testing.T) {
	cache := dedupe.NewCache(10, 20*time.Millisecond)
	require.False(t, cache.Observe("beta"))
	time.Sleep(25 * time.Millisecond)
	require.False(t, cache.Observe("beta"))
}

func TestObserveCapacityEvictsOldest(t *testing.T) {
	cache := dedupe.NewCache(1, time.Minute)
	require.False(t, cache.Observe("first"))
	require.False(t, cache.Observe("second"))

	// "first" was pushed out by "second".
	require.False(t, cache.Observe("first"))
	require.Equal(t, 1, cache.Len())
}
