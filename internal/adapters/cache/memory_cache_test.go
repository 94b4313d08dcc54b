package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/phish-guard/internal/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sampleAssessment(score int) *core.RiskAssessment {
	h := score
	return &core.RiskAssessment{
		FinalScore:     score,
		Level:          core.Classify(score),
		Source:         core.SourceHeuristicOnly,
		HeuristicScore: &h,
		Indicators:     []string{"at_symbol(+20)"},
	}
}

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(zaptest.NewLogger(t), time.Minute, newFakeClock().Now)

	_, err := c.Get(ctx, "url:http://a.example")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	want := sampleAssessment(45)
	require.NoError(t, c.Set(ctx, "url:http://a.example", want))

	got, err := c.Get(ctx, "url:http://a.example")
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestMemoryCacheExpiryEvictsOnLookup(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(zaptest.NewLogger(t), 5*time.Minute, clock.Now)

	require.NoError(t, c.Set(ctx, "k", sampleAssessment(10)))

	clock.Advance(5*time.Minute - time.Nanosecond)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(time.Nanosecond)
	assert.Equal(t, 1, c.Len(), "expired entries stay until looked up")
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheHitDoesNotExtendLifetime(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(zaptest.NewLogger(t), time.Minute, clock.Now)

	require.NoError(t, c.Set(ctx, "k", sampleAssessment(10)))
	clock.Advance(50 * time.Second)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
}

func TestMemoryCacheSetReplacesAndRestartsTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(zaptest.NewLogger(t), time.Minute, clock.Now)

	require.NoError(t, c.Set(ctx, "k", sampleAssessment(10)))
	clock.Advance(50 * time.Second)
	replacement := sampleAssessment(80)
	require.NoError(t, c.Set(ctx, "k", replacement))
	clock.Advance(50 * time.Second)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Same(t, replacement, got)
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(zaptest.NewLogger(t), 0, nil)

	require.NoError(t, c.Set(ctx, "a", sampleAssessment(1)))
	require.NoError(t, c.Set(ctx, "b", sampleAssessment(2)))
	require.NoError(t, c.Set(ctx, "c", sampleAssessment(3)))

	require.NoError(t, c.Delete(ctx, "a"))
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	// clearing an empty cache is fine
	require.NoError(t, c.Clear(ctx))
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(zaptest.NewLogger(t), time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%4))
			_ = c.Set(ctx, key, sampleAssessment(i))
			_, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, c.Len())
}
