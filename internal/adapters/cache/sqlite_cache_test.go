package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/phish-guard/internal/core"
)

func newTestSQLiteCache(t *testing.T, clock *fakeClock) *SQLiteCache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLiteCache(path, zaptest.NewLogger(t), time.Minute, clock.Now)
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestSQLiteCache(t, clock)

	ml := 72
	prob := 0.81
	want := &core.RiskAssessment{
		FinalScore:    72,
		Level:         core.LevelDangerous,
		Source:        core.SourceMLOnly,
		MLScore:       &ml,
		MLProbability: &prob,
		AssessedAt:    clock.Now(),
	}

	_, err := c.Get(ctx, "email:hello:body")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "email:hello:body", want))

	got, err := c.Get(ctx, "email:hello:body")
	require.NoError(t, err)
	assert.Equal(t, want.FinalScore, got.FinalScore)
	assert.Equal(t, want.Level, got.Level)
	assert.Equal(t, want.Source, got.Source)
	require.NotNil(t, got.MLScore)
	assert.Equal(t, ml, *got.MLScore)
	require.NotNil(t, got.MLProbability)
	assert.InDelta(t, prob, *got.MLProbability, 1e-9)
	assert.Nil(t, got.HeuristicScore)
	assert.True(t, want.AssessedAt.Equal(got.AssessedAt))
}

func TestSQLiteCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestSQLiteCache(t, clock)

	require.NoError(t, c.Set(ctx, "k", sampleAssessment(40)))
	clock.Advance(59 * time.Second)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	var rows int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM assessment_cache`).Scan(&rows))
	assert.Equal(t, 0, rows)
}

func TestSQLiteCacheReplaceDeleteClear(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLiteCache(t, newFakeClock())

	require.NoError(t, c.Set(ctx, "a", sampleAssessment(10)))
	require.NoError(t, c.Set(ctx, "a", sampleAssessment(90)))
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 90, got.FinalScore)
	assert.Equal(t, core.LevelDangerous, got.Level)

	require.NoError(t, c.Set(ctx, "b", sampleAssessment(20)))
	require.NoError(t, c.Delete(ctx, "a"))
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
}
