// Package viewswitch gates the one-way welcome→main view handoff.
package viewswitch

import (
	"sync"
	"time"
)

const (
	// FadeDuration is how long the welcome fade-out animation runs.
	FadeDuration = 800 * time.Millisecond

	// DefaultMutedFadeDelay delays the fade slightly after a muted entry
	// choice, so the choice visibly registers before the screen moves.
	DefaultMutedFadeDelay = 200 * time.Millisecond

	// DefaultStartedDwell is the minimum time between playback observably
	// starting and the welcome fade beginning.
	DefaultStartedDwell = 2 * time.Second
)

// Config wires a Switcher.
type Config struct {
	// OnFadeOut is invoked exactly once when the welcome view should fade.
	OnFadeOut func()
	// StartPlayback is the injected play action for the audio entry path.
	StartPlayback func()

	// MutedFadeDelay and StartedDwell default to the package constants when
	// zero.
	MutedFadeDelay time.Duration
	StartedDwell   time.Duration
}

// Switcher decides when the welcome screen retires. Two trigger paths: a
// muted entry fades after a short fixed delay; an audio entry waits until
// playback has observably started, then dwells a fixed minimum before
// fading. Either path requires the external readiness flag (content loaded)
// and fires at most once; while readiness is false the transition is
// deferred, never cancelled.
type Switcher struct {
	mu  sync.Mutex
	cfg Config

	ready     bool
	muted     *bool // nil until the user chooses an entry mode
	spinner   bool
	startedAt time.Time // zero until playback observably starts
	queued    bool      // fade scheduled or fired; the single-fire latch
	fired     bool
	timer     *time.Timer
}

// New creates a Switcher.
func New(cfg Config) *Switcher {
	if cfg.MutedFadeDelay == 0 {
		cfg.MutedFadeDelay = DefaultMutedFadeDelay
	}
	if cfg.StartedDwell == 0 {
		cfg.StartedDwell = DefaultStartedDwell
	}
	return &Switcher{cfg: cfg}
}

// SetReady flips the external readiness flag (content data fully loaded).
func (s *Switcher) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
	s.evaluateLocked()
}

// ChooseMuted selects the silent entry path.
func (s *Switcher) ChooseMuted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.muted != nil {
		return
	}
	muted := true
	s.muted = &muted
	s.evaluateLocked()
}

// ChoosePlay selects the audio entry path: playback starts now, and the
// welcome view holds (showing a spinner) until the stream audibly runs.
func (s *Switcher) ChoosePlay() {
	s.mu.Lock()
	if s.muted != nil {
		s.mu.Unlock()
		return
	}
	muted := false
	s.muted = &muted
	s.spinner = true
	start := s.cfg.StartPlayback
	s.mu.Unlock()

	if start != nil {
		start()
	}
}

// Observe feeds the playback signals the audio path waits on. Started means
// progress above zero or a confirmed playing state; buffering alone is not a
// start, since it can stall indefinitely on throttled networks.
func (s *Switcher) Observe(progressPercent float64, playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.muted == nil || *s.muted || s.fired {
		return
	}
	if progressPercent > 0 || playing {
		if s.startedAt.IsZero() {
			s.startedAt = time.Now()
		}
	}
	s.evaluateLocked()
}

// AwaitingStart reports whether an audio entry is still waiting for playback
// to observably start.
func (s *Switcher) AwaitingStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted != nil && !*s.muted && !s.fired && s.startedAt.IsZero()
}

// AbandonPlayback downgrades a pending audio entry to the muted path, for
// sessions where playback can never start (no audio device, no tracks).
// A no-op once playback has started or the fade is already underway.
func (s *Switcher) AbandonPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.muted == nil || *s.muted || s.fired || s.queued || !s.startedAt.IsZero() {
		return
	}
	muted := true
	s.muted = &muted
	s.spinner = false
	s.evaluateLocked()
}

// Spinner reports whether the welcome play button shows a spinner.
func (s *Switcher) Spinner() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spinner
}

// Fired reports whether the fade-out has been triggered.
func (s *Switcher) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Stop cancels a scheduled (not yet fired) fade timer.
func (s *Switcher) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// evaluateLocked schedules the fade when all gates are open. The queued
// latch guarantees a single schedule even though the triggering conditions
// re-evaluate on every progress tick.
func (s *Switcher) evaluateLocked() {
	if s.queued || !s.ready || s.muted == nil {
		return
	}

	if *s.muted {
		s.queued = true
		s.timer = time.AfterFunc(s.cfg.MutedFadeDelay, s.fire)
		return
	}

	if s.startedAt.IsZero() {
		return
	}
	remaining := s.cfg.StartedDwell - time.Since(s.startedAt)
	if remaining < 0 {
		remaining = 0
	}
	s.queued = true
	s.timer = time.AfterFunc(remaining, s.fire)
}

func (s *Switcher) fire() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	s.spinner = false
	s.timer = nil
	cb := s.cfg.OnFadeOut
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}
