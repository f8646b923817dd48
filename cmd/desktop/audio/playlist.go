package audio

import (
	"math/rand"
	"sync"
	"time"
)

// Track describes one BGM entry.
type Track struct {
	Title      string
	Artists    []string
	ArtworkURL string
	MediaID    string
}

// Playlist is the session-fixed randomized track order. It is committed at
// most once per process: the first non-empty source list is shuffled and
// locked in, and later source updates never reshuffle or replace it, so the
// listening order stays stable across re-renders.
type Playlist struct {
	mu     sync.Mutex
	tracks []Track
	index  int
}

// NewPlaylist returns an empty, uncommitted playlist.
func NewPlaylist() *Playlist {
	return &Playlist{}
}

// Commit shuffles and installs the source list if the playlist is still
// empty. Subsequent calls are no-ops regardless of slice identity.
func (p *Playlist) Commit(source []Track) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.tracks) > 0 || len(source) == 0 {
		return
	}

	shuffled := make([]Track, len(source))
	copy(shuffled, source)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(shuffled), func(i, k int) {
		shuffled[i], shuffled[k] = shuffled[k], shuffled[i]
	})

	p.tracks = shuffled
}

// Len returns the number of committed tracks.
func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tracks)
}

// Tracks returns a copy of the committed order.
func (p *Playlist) Tracks() []Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Track(nil), p.tracks...)
}

// CurrentIndex returns the current track position.
func (p *Playlist) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Current returns the current track, if the playlist is committed.
func (p *Playlist) Current() (Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return Track{}, false
	}
	return p.tracks[p.index], true
}

// Advance moves to the next track, wrapping at the end, and returns it.
func (p *Playlist) Advance() (Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return Track{}, false
	}
	p.index = (p.index + 1) % len(p.tracks)
	return p.tracks[p.index], true
}

// MediaIDs returns the media ids in committed order. Derived from the
// playlist, never stored independently.
func (p *Playlist) MediaIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, len(p.tracks))
	for i, t := range p.tracks {
		ids[i] = t.MediaID
	}
	return ids
}
