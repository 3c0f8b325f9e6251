// Package media enforces that at most one media item plays at a time across
// every video and audio player in the process.
package media

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"mediahub/pkg/logger"
)

// Kind separates the video and audio registries
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// ItemState is the shared per-item flag set players observe
type ItemState struct {
	Playing     bool
	ShowOverlay bool // videos only: the play overlay is shown while paused
	Muted       bool
}

// AudioManager stops background audio outside the coordinator's registries
type AudioManager interface {
	StopAll()
}

// Listener is called after an item's state changed, outside the coordinator lock
type Listener func(key string, kind Kind, st ItemState)

type listenerEntry struct {
	id int
	fn Listener
}

type itemRef struct {
	key  string
	kind Kind
}

type change struct {
	ref itemRef
	st  ItemState
}

// Coordinator owns the playing flag of every registered media item
type Coordinator struct {
	mu          sync.Mutex
	videos      map[string]*ItemState
	audios      map[string]*ItemState
	currentKey  string
	currentKind Kind
	audio       AudioManager
	listeners   map[itemRef][]listenerEntry
	nextID      int
	log         *logrus.Entry
}

// CoordinatorOption configures a Coordinator
type CoordinatorOption func(*Coordinator)

// WithAudioManager stops external audio whenever a video starts
func WithAudioManager(am AudioManager) CoordinatorOption {
	return func(c *Coordinator) { c.audio = am }
}

// WithCoordinatorLogger sets the logger
func WithCoordinatorLogger(l *logrus.Entry) CoordinatorOption {
	return func(c *Coordinator) { c.log = l }
}

// NewCoordinator creates a coordinator. Without an AudioManager it only tracks state.
func NewCoordinator(opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		videos:    make(map[string]*ItemState),
		audios:    make(map[string]*ItemState),
		listeners: make(map[itemRef][]listenerEntry),
		log:       logger.Component("media"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) registry(kind Kind) map[string]*ItemState {
	if kind == KindVideo {
		return c.videos
	}
	return c.audios
}

func (c *Coordinator) itemLocked(key string, kind Kind) *ItemState {
	reg := c.registry(kind)
	st, ok := reg[key]
	if !ok {
		st = &ItemState{ShowOverlay: kind == KindVideo}
		reg[key] = st
	}
	return st
}

// PlayMediaGlobally starts key and silences everything else. Calling it for
// the item that is already playing pauses it instead.
func (c *Coordinator) PlayMediaGlobally(key string, kind Kind) {
	c.mu.Lock()

	target := c.itemLocked(key, kind)
	if target.Playing {
		changes := c.pauseLocked(key, kind)
		c.mu.Unlock()
		c.notify(changes)
		return
	}

	var changes []change
	for k, st := range c.videos {
		if (k == key && kind == KindVideo) || (!st.Playing && st.ShowOverlay) {
			continue
		}
		st.Playing = false
		st.ShowOverlay = true
		changes = append(changes, change{ref: itemRef{k, KindVideo}, st: *st})
	}
	for k, st := range c.audios {
		if (k == key && kind == KindAudio) || !st.Playing {
			continue
		}
		st.Playing = false
		changes = append(changes, change{ref: itemRef{k, KindAudio}, st: *st})
	}

	target.Playing = true
	target.ShowOverlay = false
	c.currentKey = key
	c.currentKind = kind
	changes = append(changes, change{ref: itemRef{key, kind}, st: *target})

	stopAudio := kind == KindVideo && c.audio != nil
	c.mu.Unlock()

	if stopAudio {
		c.audio.StopAll()
	}
	c.log.WithFields(logger.Fields{"key": key, "kind": kind}).Debug("playing")
	c.notify(changes)
}

// Pause stops key if it is playing
func (c *Coordinator) Pause(key string, kind Kind) {
	c.mu.Lock()
	changes := c.pauseLocked(key, kind)
	c.mu.Unlock()
	c.notify(changes)
}

func (c *Coordinator) pauseLocked(key string, kind Kind) []change {
	st, ok := c.registry(kind)[key]
	if !ok || !st.Playing {
		return nil
	}
	st.Playing = false
	if kind == KindVideo {
		st.ShowOverlay = true
	}
	if c.currentKey == key && c.currentKind == kind {
		c.currentKey = ""
		c.currentKind = ""
	}
	return []change{{ref: itemRef{key, kind}, st: *st}}
}

// StopAll pauses every item and stops external audio
func (c *Coordinator) StopAll() {
	c.mu.Lock()
	var changes []change
	for k, st := range c.videos {
		if st.Playing {
			st.Playing = false
			st.ShowOverlay = true
			changes = append(changes, change{ref: itemRef{k, KindVideo}, st: *st})
		}
	}
	for k, st := range c.audios {
		if st.Playing {
			st.Playing = false
			changes = append(changes, change{ref: itemRef{k, KindAudio}, st: *st})
		}
	}
	c.currentKey = ""
	c.currentKind = ""
	am := c.audio
	c.mu.Unlock()

	if am != nil {
		am.StopAll()
	}
	c.notify(changes)
}

// SetMuted records the muted flag for an item
func (c *Coordinator) SetMuted(key string, kind Kind, muted bool) {
	c.mu.Lock()
	st := c.itemLocked(key, kind)
	if st.Muted == muted {
		c.mu.Unlock()
		return
	}
	st.Muted = muted
	ch := []change{{ref: itemRef{key, kind}, st: *st}}
	c.mu.Unlock()
	c.notify(ch)
}

// State returns an item's flags and whether it is registered
func (c *Coordinator) State(key string, kind Kind) (ItemState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.registry(kind)[key]
	if !ok {
		return ItemState{}, false
	}
	return *st, true
}

// Current returns the playing item, if any
func (c *Coordinator) Current() (string, Kind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentKey, c.currentKind, c.currentKey != ""
}

// Playing lists every item whose playing flag is set, sorted by key
func (c *Coordinator) Playing() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for k, st := range c.videos {
		if st.Playing {
			out = append(out, string(KindVideo)+":"+k)
		}
	}
	for k, st := range c.audios {
		if st.Playing {
			out = append(out, string(KindAudio)+":"+k)
		}
	}
	sort.Strings(out)
	return out
}

// Remove unregisters an item, pausing it first
func (c *Coordinator) Remove(key string, kind Kind) {
	c.mu.Lock()
	c.pauseLocked(key, kind)
	delete(c.registry(kind), key)
	delete(c.listeners, itemRef{key, kind})
	c.mu.Unlock()
}

// Subscribe registers fn for changes to one item and returns a func that removes it
func (c *Coordinator) Subscribe(key string, kind Kind, fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.itemLocked(key, kind)
	ref := itemRef{key, kind}
	c.nextID++
	id := c.nextID
	c.listeners[ref] = append(c.listeners[ref], listenerEntry{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		entries := c.listeners[ref]
		for i, e := range entries {
			if e.id == id {
				c.listeners[ref] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
	}
}

func (c *Coordinator) notify(changes []change) {
	if len(changes) == 0 {
		return
	}
	type call struct {
		fn Listener
		ch change
	}
	var calls []call
	c.mu.Lock()
	for _, ch := range changes {
		for _, e := range c.listeners[ch.ref] {
			calls = append(calls, call{fn: e.fn, ch: ch})
		}
	}
	c.mu.Unlock()

	for _, cl := range calls {
		cl.fn(cl.ch.ref.key, cl.ch.ref.kind, cl.ch.st)
	}
}
