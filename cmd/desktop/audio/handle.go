// Package audio manages the persistent background-music session: track
// order, play/pause/next semantics, volume fades and progress sampling, all
// against an abstract player handle.
package audio

import "time"

// State mirrors the embedded player's native state encoding. The numeric
// values are part of the player contract and must not be renumbered.
type State int

const (
	StateUnstarted State = -1
	StateEnded     State = 0
	StatePlaying   State = 1
	StatePaused    State = 2
	StateBuffering State = 3
	StateCued      State = 5
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "unknown"
	}
}

// Quality selects the player's decode quality. The session is audio-only, so
// playback always requests the cheapest setting once the player is ready.
type Quality int

const (
	QualityLow Quality = iota
	QualityDefault
	QualityHigh
)

// Handle is the imperative control surface of the embedded media player.
// Implementations emit ready and state-change events through callbacks
// registered at construction. Methods must be safe to call from timer
// goroutines, and commands issued against a half-initialized player are
// dropped rather than queued.
type Handle interface {
	Play()
	Pause()
	Load(mediaID string)
	SetVolume(v int) // 0..100
	SetQuality(q Quality)
	CurrentTime() (time.Duration, error)
	Duration() (time.Duration, error)
}
