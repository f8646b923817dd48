package audio

import (
	"math"
	"sync"
	"time"
)

const (
	// FullVolume is the target once playback is confirmed running.
	FullVolume = 100

	// DefaultFadeDuration is the ramp length used around pause/resume.
	DefaultFadeDuration = 400 * time.Millisecond

	fadeTickInterval = 20 * time.Millisecond
)

// FadeController ramps the player volume linearly over a real clock so that
// pause and resume never produce an audible click. At most one fade is in
// flight; starting a new one fully cancels the old one first, and a
// generation counter lets deferred actions (the post-fade pause) detect that
// they have been superseded.
type FadeController struct {
	mu     sync.Mutex
	handle func() Handle // resolved late; a nil handle makes volume ops no-ops

	current int           // last volume commanded to the player
	cancel  chan struct{} // closed to stop the in-flight fade
	tick    time.Duration

	pendingFadeIn bool   // fade in once the player reports playing
	pausing       bool   // an in-flight fade-out should end in a pause
	seq           uint64 // generation counter guarding deferred pauses
}

// NewFadeController creates a controller reading the player handle through
// the given accessor on every volume command.
func NewFadeController(handle func() Handle) *FadeController {
	return &FadeController{
		handle:  handle,
		current: FullVolume,
		tick:    fadeTickInterval,
	}
}

// Volume returns the last volume commanded to the player.
func (f *FadeController) Volume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// setVolumeLocked clamps, records and forwards a volume to the player. When
// the handle is not available yet the command is dropped entirely.
func (f *FadeController) setVolumeLocked(v int) {
	h := f.handle()
	if h == nil {
		return
	}
	if v < 0 {
		v = 0
	}
	if v > FullVolume {
		v = FullVolume
	}
	f.current = v
	h.SetVolume(v)
}

// cancelLocked stops any in-flight fade. No further tick of the cancelled
// fade will command a volume.
func (f *FadeController) cancelLocked() {
	if f.cancel != nil {
		close(f.cancel)
		f.cancel = nil
	}
}

// FadeTo ramps the volume linearly to target over the given duration. The
// returned channel closes when the fade completes or is cancelled by a newer
// fade; deferred actions must consult the generation guard rather than the
// channel to tell the two apart. A zero ramp (already at target, or a
// non-positive duration) applies immediately without starting a timer.
func (f *FadeController) FadeTo(target int, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})

	f.mu.Lock()
	if f.handle() == nil {
		f.mu.Unlock()
		close(done)
		return done
	}
	f.cancelLocked()

	start := f.current
	if target == start || duration <= 0 {
		f.setVolumeLocked(target)
		f.mu.Unlock()
		close(done)
		return done
	}

	steps := int(duration / f.tick)
	if steps < 1 {
		steps = 1
	}
	perStep := float64(target-start) / float64(steps)
	cancel := make(chan struct{})
	f.cancel = cancel
	f.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(f.tick)
		defer ticker.Stop()

		for step := 1; ; {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				f.mu.Lock()
				select {
				case <-cancel:
					f.mu.Unlock()
					return
				default:
				}
				if step >= steps {
					// Land exactly on the target regardless of rounding.
					f.setVolumeLocked(target)
					f.cancel = nil
					f.mu.Unlock()
					return
				}
				f.setVolumeLocked(int(math.Round(float64(start) + perStep*float64(step))))
				f.mu.Unlock()
				step++
			}
		}
	}()

	return done
}

// PrepareFadeInForResume readies the controller for a resume-from-pause:
// the stream restarts silent and ramps up only once the player actually
// reports playing. Must be called before commanding play, because volume
// commands issued before media is flowing are unreliable.
func (f *FadeController) PrepareFadeInForResume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pausing = false
	f.seq++
	f.pendingFadeIn = true
	f.cancelLocked()
	f.setVolumeLocked(0)
}

// PrepareImmediatePlayback snaps straight to full volume, for starts where a
// fade would be perceptually wrong (next track, cold start).
func (f *FadeController) PrepareImmediatePlayback() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pausing = false
	f.pendingFadeIn = false
	f.cancelLocked()
	f.setVolumeLocked(FullVolume)
}

// BeginPause marks a fade-out-then-pause in progress, cancels any running
// fade, and returns the generation to compare once the fade-out settles.
func (f *FadeController) BeginPause() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingFadeIn = false
	f.pausing = true
	f.seq++
	f.cancelLocked()
	return f.seq
}

// ShouldCompletePause reports whether the deferred pause from generation seq
// is still the latest intent. A resume or next-track in between bumps the
// generation or clears the pausing flag, and the stale pause must not fire.
func (f *FadeController) ShouldCompletePause(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq == seq && f.pausing
}

// ConsumePendingFadeIn clears and returns the fade-in-pending flag. Called
// when the player reports that playback has actually started.
func (f *FadeController) ConsumePendingFadeIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.pendingFadeIn {
		return false
	}
	f.pendingFadeIn = false
	return true
}
