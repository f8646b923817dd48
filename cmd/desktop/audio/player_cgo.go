//go:build (linux && cgo) || windows || darwin

package audio

import (
	"bytes"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// PlaybackAvailable indicates whether audio output is supported in this
// build. Audio requires CGO for native sound libraries.
const PlaybackAvailable = true

// MediaResolver fetches raw MP3 bytes for a media id.
type MediaResolver func(mediaID string) ([]byte, error)

// Events carries the player's outbound notifications. Callbacks are invoked
// outside the player's lock and may call back into the handle.
type Events struct {
	OnReady       func(Handle)
	OnStateChange func(State)
}

// Player is a local, beep-backed implementation of the embedded player
// contract: it loads tracks by media id through a resolver and reports the
// same numeric states an embedded widget would.
type Player struct {
	mu      sync.Mutex
	resolve MediaResolver
	events  Events

	initialized bool
	sampleRate  beep.SampleRate
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	started     bool // speaker.Play has been issued for the current streamer
	quality     int  // resampler quality
	vol         int  // 0..100, reapplied on every load
	gen         uint64
}

// NewPlayer creates a player. Open must be called before any command has an
// effect.
func NewPlayer(resolve MediaResolver, events Events) *Player {
	return &Player{
		resolve:    resolve,
		events:     events,
		sampleRate: beep.SampleRate(44100),
		quality:    4,
		vol:        FullVolume,
	}
}

// Open initializes the audio device and emits the ready event.
func (p *Player) Open() error {
	p.mu.Lock()
	if !p.initialized {
		if err := speaker.Init(p.sampleRate, p.sampleRate.N(time.Second/10)); err != nil {
			p.mu.Unlock()
			return err
		}
		p.initialized = true
	}
	p.mu.Unlock()

	if p.events.OnReady != nil {
		p.events.OnReady(p)
	}
	return nil
}

func (p *Player) emit(s State) {
	if p.events.OnStateChange != nil {
		p.events.OnStateChange(s)
	}
}

// Load stops the previous track and cues a new one. The fetch and decode run
// off the calling goroutine (media comes over the network and must not stall
// the UI loop); completion is reported through the cued event. A newer Load
// or a Close supersedes an in-flight one via the generation counter.
func (p *Player) Load(mediaID string) {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return
	}
	p.stopLocked()
	gen := p.gen
	resolve := p.resolve
	p.mu.Unlock()

	p.emit(StateBuffering)
	go p.finishLoad(gen, mediaID, resolve)
}

func (p *Player) finishLoad(gen uint64, mediaID string, resolve MediaResolver) {
	data, err := resolve(mediaID)
	if err != nil {
		if p.currentGen(gen) {
			p.emit(StateUnstarted)
		}
		return
	}

	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		if p.currentGen(gen) {
			p.emit(StateUnstarted)
		}
		return
	}

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		streamer.Close()
		return
	}
	p.streamer = streamer
	p.format = format
	resampled := beep.Resample(p.quality, format.SampleRate, p.sampleRate, streamer)
	p.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	p.applyVolumeLocked(p.vol)
	p.started = false
	p.mu.Unlock()

	p.emit(StateCued)
}

func (p *Player) currentGen(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.gen
}

// Play starts or resumes the cued track.
func (p *Player) Play() {
	p.mu.Lock()
	if p.ctrl == nil {
		p.mu.Unlock()
		return
	}

	if !p.started {
		p.started = true
		p.gen++
		gen := p.gen
		seq := beep.Seq(p.volume, beep.Callback(func() {
			// The callback runs on the speaker goroutine; hand off so the
			// ended event can command the player without deadlocking.
			go p.onStreamEnd(gen)
		}))
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
		speaker.Play(seq)
	} else {
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
	}
	p.mu.Unlock()

	p.emit(StatePlaying)
}

func (p *Player) onStreamEnd(gen uint64) {
	if p.currentGen(gen) {
		p.emit(StateEnded)
	}
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.ctrl == nil {
		p.mu.Unlock()
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.mu.Unlock()

	p.emit(StatePaused)
}

// SetVolume sets the output volume on a 0..100 scale.
func (p *Player) SetVolume(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > FullVolume {
		v = FullVolume
	}
	p.vol = v
	p.applyVolumeLocked(v)
}

// applyVolumeLocked maps the linear 0..100 scale onto beep's exponential
// volume. Zero mutes outright.
func (p *Player) applyVolumeLocked(v int) {
	if p.volume == nil {
		return
	}
	speaker.Lock()
	if v == 0 {
		p.volume.Silent = true
	} else {
		p.volume.Silent = false
		p.volume.Volume = math.Log2(float64(v) / float64(FullVolume))
	}
	speaker.Unlock()
}

// SetQuality selects the resampler quality for subsequent loads. The
// audio-only session always asks for the cheapest setting.
func (p *Player) SetQuality(q Quality) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch q {
	case QualityLow:
		p.quality = 1
	case QualityHigh:
		p.quality = 6
	default:
		p.quality = 4
	}
}

// CurrentTime returns the elapsed time of the current track.
func (p *Player) CurrentTime() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0, ErrNoTrackLoaded
	}
	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(pos), nil
}

// Duration returns the total duration of the current track.
func (p *Player) Duration() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0, ErrNoTrackLoaded
	}
	return p.format.SampleRate.D(p.streamer.Len()), nil
}

// Close stops playback and releases the current streamer.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// stopLocked tears down the current track. Must be called with the lock
// held.
func (p *Player) stopLocked() {
	p.gen++ // end-of-stream callbacks and in-flight loads become stale
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.ctrl = nil
	p.volume = nil
	p.started = false
}

// nopCloser wraps a bytes.Reader to satisfy io.ReadCloser for the decoder.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
