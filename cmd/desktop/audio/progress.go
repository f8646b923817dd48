package audio

import (
	"sync"
	"time"
)

const progressInterval = 100 * time.Millisecond

// Sampler polls the player for elapsed time and duration and republishes the
// normalized percentage. This is best-effort telemetry: a missing handle, a
// failed read or an unknown duration skips the tick, and the next tick
// retries naturally.
type Sampler struct {
	mu         sync.Mutex
	handle     func() Handle
	onProgress func(float64)
	percent    float64
	stop       chan struct{}
}

// NewSampler creates a sampler reading the handle through the accessor on
// every tick. onProgress may be nil.
func NewSampler(handle func() Handle, onProgress func(float64)) *Sampler {
	return &Sampler{handle: handle, onProgress: onProgress}
}

// Percent returns the last published progress percentage in [0,100].
func (s *Sampler) Percent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent
}

// Start begins polling. Start on a running sampler is a no-op.
func (s *Sampler) Start() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.sample()
			}
		}
	}()
}

// Stop tears the polling ticker down.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// sample reads one elapsed/duration pair and publishes the percentage.
func (s *Sampler) sample() {
	h := s.handle()
	if h == nil {
		return
	}

	elapsed, err := h.CurrentTime()
	if err != nil {
		return
	}
	duration, err := h.Duration()
	if err != nil || duration <= 0 {
		return
	}

	percent := float64(elapsed) / float64(duration) * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	s.mu.Lock()
	s.percent = percent
	cb := s.onProgress
	s.mu.Unlock()

	if cb != nil {
		cb(percent)
	}
}
