//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"time"
)

// PlaybackAvailable indicates whether audio output is supported in this
// build. Audio requires CGO for native sound libraries.
const PlaybackAvailable = false

// MediaResolver fetches raw MP3 bytes for a media id.
type MediaResolver func(mediaID string) ([]byte, error)

// Events carries the player's outbound notifications.
type Events struct {
	OnReady       func(Handle)
	OnStateChange func(State)
}

// Player is a no-op stand-in for builds without audio support. The desktop
// still runs, just silent.
type Player struct {
	events Events
}

// NewPlayer creates a no-op player.
func NewPlayer(resolve MediaResolver, events Events) *Player {
	return &Player{events: events}
}

// Open emits the ready event so the session wires up normally.
func (p *Player) Open() error {
	if p.events.OnReady != nil {
		p.events.OnReady(p)
	}
	return nil
}

func (p *Player) Play()                {}
func (p *Player) Pause()               {}
func (p *Player) Load(mediaID string)  {}
func (p *Player) SetVolume(v int)      {}
func (p *Player) SetQuality(q Quality) {}
func (p *Player) Close()               {}

func (p *Player) CurrentTime() (time.Duration, error) {
	return 0, ErrNoTrackLoaded
}

func (p *Player) Duration() (time.Duration, error) {
	return 0, ErrNoTrackLoaded
}
