package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationIsStableAndBounded(t *testing.T) {
	for _, src := range []string{"video:intro", "track:theme-song", "x"} {
		d := DurationOf(src)
		assert.Equal(t, d, DurationOf(src))
		assert.GreaterOrEqual(t, d, minDuration)
		assert.Less(t, d, maxDuration)
	}
}

func TestEngineAdvance(t *testing.T) {
	e := NewEngine()
	assert.ErrorIs(t, e.Play(), ErrNotLoaded)

	d, err := e.Load(context.Background(), "video:v1")
	require.NoError(t, err)

	pos, done := e.Advance(time.Second)
	assert.Zero(t, pos)
	assert.False(t, done, "paused engines do not move")

	require.NoError(t, e.Play())
	pos, done = e.Advance(time.Second)
	assert.Equal(t, time.Second, pos)
	assert.False(t, done)

	pos, done = e.Advance(d)
	assert.Equal(t, d, pos)
	assert.True(t, done)
	assert.False(t, e.Playing())
}

func TestEngineLoadHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine().Load(ctx, "video:v1")
	assert.ErrorIs(t, err, context.Canceled)
}
