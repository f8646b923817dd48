package audio

import "sync"

// Controller owns play/pause/next semantics against the player handle,
// coordinating with the fade controller around play/pause boundaries.
//
// It tracks two state fields: the user's optimistic intent (so UI icons flip
// before the player confirms) and the player-reported state. Any report from
// the player wins over a pending intent.
type Controller struct {
	mu       sync.Mutex
	handle   Handle // nil until the player reports ready
	fade     *FadeController
	playlist *Playlist

	intended     State
	intentActive bool
	confirmed    State
}

// NewController creates a playback controller over the given playlist. The
// handle arrives later through HandleReady; until then every player-facing
// operation degrades to a no-op.
func NewController(playlist *Playlist) *Controller {
	c := &Controller{
		playlist:  playlist,
		intended:  StateUnstarted,
		confirmed: StateUnstarted,
	}
	c.fade = NewFadeController(c.Handle)
	return c
}

// Handle returns the player handle, or nil before the ready event.
func (c *Controller) Handle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Fade exposes the fade controller (for progress/volume displays).
func (c *Controller) Fade() *FadeController {
	return c.fade
}

// State returns the optimistic intent while a command awaits player
// confirmation, then the confirmed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	if c.intentActive {
		return c.intended
	}
	return c.confirmed
}

// ConfirmedState returns the last player-reported state, ignoring any
// optimistic intent. Gates that must not trip on wishful state (the welcome
// transition) read this instead of State.
func (c *Controller) ConfirmedState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

// IsPlaying reports whether the session is (intended or confirmed) playing.
func (c *Controller) IsPlaying() bool {
	return c.State() == StatePlaying
}

func (c *Controller) setIntentLocked(s State) {
	c.intended = s
	c.intentActive = true
}

// Play starts or resumes playback. Resuming from pause restarts silent and
// fades in once the player confirms; anything else plays at full volume
// immediately. A session that already ended reloads the current track first.
func (c *Controller) Play() {
	c.mu.Lock()
	h := c.handle
	if h == nil {
		c.mu.Unlock()
		return
	}
	prev := c.stateLocked()
	c.setIntentLocked(StatePlaying)
	track, hasTrack := c.playlist.Current()
	c.mu.Unlock()

	if prev == StatePaused {
		c.fade.PrepareFadeInForResume()
	} else {
		c.fade.PrepareImmediatePlayback()
	}

	if prev == StateEnded && hasTrack {
		h.Load(track.MediaID)
	}
	h.Play()
}

// Pause fades the volume out and only then pauses the player; pausing
// abruptly at full volume produces an audible click. The deferred pause is
// generation-guarded: a resume issued mid-fade supersedes it.
func (c *Controller) Pause() {
	c.mu.Lock()
	h := c.handle
	if h == nil {
		c.mu.Unlock()
		return
	}
	c.setIntentLocked(StatePaused)
	c.mu.Unlock()

	seq := c.fade.BeginPause()
	done := c.fade.FadeTo(0, DefaultFadeDuration)
	go func() {
		<-done
		if c.fade.ShouldCompletePause(seq) {
			h.Pause()
		}
	}()
}

// Next advances to the next track (wrapping) and plays it at full volume.
// The index advances even before the player is ready, so the session picks
// up in the right place once it is.
func (c *Controller) Next() {
	track, ok := c.playlist.Advance()

	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	if h == nil || !ok {
		return
	}

	c.fade.PrepareImmediatePlayback()
	h.Load(track.MediaID)
	h.Play()
}

// HandleReady captures the player handle and configures it for the
// audio-only use case (minimal decode quality).
func (c *Controller) HandleReady(h Handle) {
	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()
	h.SetQuality(QualityLow)
}

// HandleStateChange records the player-reported state (authoritative over
// any optimistic intent) and triggers the pending fade-in once playback has
// actually started.
func (c *Controller) HandleStateChange(s State) {
	c.mu.Lock()
	c.confirmed = s
	c.intentActive = false
	c.mu.Unlock()

	if s == StatePlaying && c.fade.ConsumePendingFadeIn() {
		c.fade.FadeTo(FullVolume, DefaultFadeDuration)
	}
}

// Controls is the imperative surface handed to UI components that are not
// the playback owner, so they can drive the session without prop-drilling
// through intermediate views.
type Controls struct {
	Play  func()
	Pause func()
	Next  func()
}

// Controls returns the bound control surface.
func (c *Controller) Controls() Controls {
	return Controls{Play: c.Play, Pause: c.Pause, Next: c.Next}
}
