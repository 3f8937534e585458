package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyIsStableAcrossTimezones(t *testing.T) {
	at := time.Date(2026, 8, 24, 14, 30, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+2", 2*3600)

	require.Equal(t, "event|Standup|2026-08-24T14:30:00Z", Key("event", "Standup", at))
	require.Equal(t, Key("event", "Standup", at), Key("event", "Standup", at.In(loc)))
}

func TestKeyDistinguishesSourceAndInstant(t *testing.T) {
	at := time.Date(2026, 8, 24, 14, 30, 0, 0, time.UTC)

	require.NotEqual(t, Key("event", "Standup", at), Key("task", "Standup", at))
	require.NotEqual(t, Key("event", "Standup", at), Key("event", "Standup", at.Add(time.Minute)))
}

func TestMarkAndSeen(t *testing.T) {
	r := NewDedupRegistry()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	key := Key("event", "Standup", now.Add(10*time.Minute))

	require.False(t, r.Seen(key))
	r.Mark(key, now)
	require.True(t, r.Seen(key))
	require.Equal(t, 1, r.Len())
}

func TestPruneRemovesOnlyStaleKeys(t *testing.T) {
	r := NewDedupRegistry()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	r.Mark("stale", now.Add(-25*time.Hour))
	r.Mark("fresh", now.Add(-time.Hour))

	removed := r.Prune(now.Add(-24 * time.Hour))
	require.Equal(t, 1, removed)
	require.False(t, r.Seen("stale"))
	require.True(t, r.Seen("fresh"))
	require.Equal(t, 1, r.Len())
}

func TestPruneEmptyRegistry(t *testing.T) {
	r := NewDedupRegistry()
	require.Zero(t, r.Prune(time.Now()))
}
