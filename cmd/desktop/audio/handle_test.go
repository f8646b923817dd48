package audio

import (
	"sync"
	"time"
)

// fakeHandle is a synchronous in-memory player used across the package
// tests.
type fakeHandle struct {
	mu       sync.Mutex
	volumes  []int
	plays    int
	pauses   int
	loads    []string
	quality  Quality
	elapsed  time.Duration
	duration time.Duration
	readErr  error
}

func (f *fakeHandle) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
}

func (f *fakeHandle) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeHandle) Load(mediaID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, mediaID)
}

func (f *fakeHandle) SetVolume(v int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = append(f.volumes, v)
}

func (f *fakeHandle) SetQuality(q Quality) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quality = q
}

func (f *fakeHandle) CurrentTime() (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsed, f.readErr
}

func (f *fakeHandle) Duration() (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration, f.readErr
}

func (f *fakeHandle) volumeLog() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.volumes...)
}

func (f *fakeHandle) clearVolumes() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = nil
}

func (f *fakeHandle) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func (f *fakeHandle) pauseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses
}

func (f *fakeHandle) loadLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loads...)
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
