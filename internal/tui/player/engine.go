// Package player is a terminal stand-in for a platform media engine. It
// tracks a playback clock instead of decoding anything.
package player

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

const (
	minDuration = 20 * time.Second
	maxDuration = 4 * time.Minute
)

// ErrNotLoaded is returned when controlling an engine with no source
var ErrNotLoaded = errors.New("no source loaded")

// Engine simulates playback of one source
type Engine struct {
	mu       sync.Mutex
	source   string
	duration time.Duration
	position time.Duration
	playing  bool
	muted    bool
}

// NewEngine returns an unloaded engine
func NewEngine() *Engine {
	return &Engine{}
}

// DurationOf is the simulated length of source, stable across runs
func DurationOf(source string) time.Duration {
	h := fnv.New32a()
	h.Write([]byte(source))
	span := uint32((maxDuration - minDuration) / time.Second)
	return minDuration + time.Duration(h.Sum32()%span)*time.Second
}

func (e *Engine) Load(ctx context.Context, source string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = source
	e.duration = DurationOf(source)
	e.position = 0
	e.playing = false
	return e.duration, nil
}

func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source == "" {
		return ErrNotLoaded
	}
	e.playing = true
	return nil
}

func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	return nil
}

func (e *Engine) SetMuted(muted bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
	return nil
}

func (e *Engine) Seek(position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source == "" {
		return ErrNotLoaded
	}
	e.position = position
	return nil
}

func (e *Engine) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = ""
	e.playing = false
	e.position = 0
	return nil
}

// Advance moves a playing engine forward by d. It returns the new position
// and whether the end of the source was reached.
func (e *Engine) Advance(d time.Duration) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing || e.source == "" {
		return e.position, false
	}
	e.position += d
	if e.position >= e.duration {
		e.position = e.duration
		e.playing = false
		return e.position, true
	}
	return e.position, false
}

// Playing reports whether the clock is running
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}
