package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mediahub/pkg/models"
)

// DefaultViewThreshold is the progress at which a playback counts as a view
const DefaultViewThreshold = 0.5

// Engine is the platform playback backend a Player drives
type Engine interface {
	Load(ctx context.Context, source string) (time.Duration, error)
	Play() error
	Pause() error
	SetMuted(muted bool) error
	Seek(position time.Duration) error
	Unload() error
}

// PlaybackState is owned by one Player instance
type PlaybackState struct {
	IsPlaying bool
	IsLoading bool
	IsMuted   bool
	Progress  float64 // 0..1
	Duration  time.Duration
	Position  time.Duration
	Err       error
}

// ViewFunc receives one view report per loaded source
type ViewFunc func(view models.ViewRequest)

// Player binds an Engine to one item in the Coordinator. It starts and
// stops the engine when the coordinator's playing flag for its item changes.
type Player struct {
	mu            sync.Mutex
	key           string
	kind          Kind
	engine        Engine
	coord         *Coordinator
	state         PlaybackState
	viewThreshold float64
	viewReported  bool
	onView        ViewFunc
	unsubscribe   func()
}

// PlayerOption configures a Player
type PlayerOption func(*Player)

// WithViewThreshold sets the progress that counts as a view
func WithViewThreshold(p float64) PlayerOption {
	return func(pl *Player) { pl.viewThreshold = clamp01(p) }
}

// OnView sets the view reporter
func OnView(fn ViewFunc) PlayerOption {
	return func(pl *Player) { pl.onView = fn }
}

// NewPlayer registers key with the coordinator and follows its playing flag
func NewPlayer(coord *Coordinator, key models.ContentKey, kind Kind, engine Engine, opts ...PlayerOption) *Player {
	p := &Player{
		key:           key.String(),
		kind:          kind,
		engine:        engine,
		coord:         coord,
		viewThreshold: DefaultViewThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.unsubscribe = coord.Subscribe(p.key, kind, p.onCoordinatorChange)
	return p
}

// Key returns the coordinator key of this player
func (p *Player) Key() string {
	return p.key
}

// Load prepares source for playback and resets progress
func (p *Player) Load(ctx context.Context, source string) error {
	p.mu.Lock()
	p.state = PlaybackState{IsLoading: true, IsMuted: p.state.IsMuted}
	p.viewReported = false
	p.mu.Unlock()

	duration, err := p.engine.Load(ctx, source)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.IsLoading = false
	if err != nil {
		p.state.Err = fmt.Errorf("failed to load %s: %w", source, err)
		return p.state.Err
	}
	p.state.Duration = duration
	return nil
}

// Play asks the coordinator to make this item the only one playing. If it
// is already playing this pauses it.
func (p *Player) Play() {
	p.coord.PlayMediaGlobally(p.key, p.kind)
}

// Pause stops this item
func (p *Player) Pause() {
	p.coord.Pause(p.key, p.kind)
}

// SetMuted mutes or unmutes the engine
func (p *Player) SetMuted(muted bool) error {
	if err := p.engine.SetMuted(muted); err != nil {
		p.setErr(err)
		return err
	}
	p.mu.Lock()
	p.state.IsMuted = muted
	p.mu.Unlock()
	p.coord.SetMuted(p.key, p.kind, muted)
	return nil
}

// Seek moves playback to position, clamped to the loaded duration
func (p *Player) Seek(position time.Duration) error {
	p.mu.Lock()
	if p.state.Duration > 0 && position > p.state.Duration {
		position = p.state.Duration
	}
	if position < 0 {
		position = 0
	}
	p.mu.Unlock()

	if err := p.engine.Seek(position); err != nil {
		p.setErr(err)
		return err
	}
	p.Progress(position)
	return nil
}

// Progress is called by the engine as playback advances
func (p *Player) Progress(position time.Duration) {
	p.mu.Lock()
	p.state.Position = position
	if p.state.Duration > 0 {
		p.state.Progress = clamp01(float64(position) / float64(p.state.Duration))
	}
	view, report := p.viewLocked(false)
	p.mu.Unlock()

	if report {
		p.onView(view)
	}
}

// Complete is called by the engine when playback reaches the end
func (p *Player) Complete() {
	p.mu.Lock()
	p.state.Progress = 1
	p.state.Position = p.state.Duration
	view, report := p.viewLocked(true)
	p.mu.Unlock()

	p.coord.Pause(p.key, p.kind)
	if report {
		p.onView(view)
	}
}

// Fail records an engine error and stops playback
func (p *Player) Fail(err error) {
	p.setErr(err)
	p.coord.Pause(p.key, p.kind)
}

// State returns a copy of the playback state
func (p *Player) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close stops following the coordinator and unloads the engine
func (p *Player) Close() error {
	p.unsubscribe()
	p.coord.Remove(p.key, p.kind)
	return p.engine.Unload()
}

func (p *Player) onCoordinatorChange(key string, kind Kind, st ItemState) {
	p.mu.Lock()
	if p.state.IsPlaying == st.Playing {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	var err error
	if st.Playing {
		err = p.engine.Play()
	} else {
		err = p.engine.Pause()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state.Err = err
		p.state.IsPlaying = false
		return
	}
	p.state.IsPlaying = st.Playing
	p.state.Err = nil
}

// viewLocked decides whether to report a view now. One report per load.
func (p *Player) viewLocked(complete bool) (models.ViewRequest, bool) {
	if p.onView == nil || p.viewReported {
		return models.ViewRequest{}, false
	}
	if !complete && p.state.Progress < p.viewThreshold {
		return models.ViewRequest{}, false
	}
	p.viewReported = true
	return models.ViewRequest{
		DurationMs:  p.state.Position.Milliseconds(),
		ProgressPct: p.state.Progress,
		IsComplete:  complete,
	}, true
}

func (p *Player) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Err = err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
