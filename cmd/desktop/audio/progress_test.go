package audio

import (
	"errors"
	"testing"
	"time"
)

func TestSamplePublishesPercentage(t *testing.T) {
	h := &fakeHandle{elapsed: 30 * time.Second, duration: 2 * time.Minute}
	var published []float64
	s := NewSampler(func() Handle { return h }, func(p float64) { published = append(published, p) })

	s.sample()

	if got := s.Percent(); got != 25 {
		t.Errorf("percent = %v, want 25", got)
	}
	if len(published) != 1 || published[0] != 25 {
		t.Errorf("published = %v, want [25]", published)
	}
}

func TestSampleSkipsWithoutHandle(t *testing.T) {
	s := NewSampler(func() Handle { return nil }, nil)
	s.sample()
	if s.Percent() != 0 {
		t.Errorf("percent = %v, want untouched 0", s.Percent())
	}
}

func TestSampleSkipsBadReads(t *testing.T) {
	tests := []struct {
		name   string
		handle *fakeHandle
	}{
		{"read error", &fakeHandle{readErr: errors.New("not ready")}},
		{"zero duration", &fakeHandle{elapsed: 5 * time.Second, duration: 0}},
		{"negative duration", &fakeHandle{elapsed: 5 * time.Second, duration: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(func() Handle { return tt.handle }, nil)
			s.sample()
			if s.Percent() != 0 {
				t.Errorf("percent = %v, want skipped tick", s.Percent())
			}
		})
	}
}

func TestSampleClampsOverrun(t *testing.T) {
	// Elapsed can momentarily overshoot the reported duration.
	h := &fakeHandle{elapsed: 150 * time.Second, duration: 100 * time.Second}
	s := NewSampler(func() Handle { return h }, nil)

	s.sample()

	if got := s.Percent(); got != 100 {
		t.Errorf("percent = %v, want clamped 100", got)
	}
}

func TestSamplerStartStop(t *testing.T) {
	h := &fakeHandle{elapsed: time.Second, duration: 10 * time.Second}
	s := NewSampler(func() Handle { return h }, nil)

	s.Start()
	s.Start() // second start is a no-op
	if !waitFor(2*time.Second, func() bool { return s.Percent() == 10 }) {
		t.Fatalf("sampler never published, percent = %v", s.Percent())
	}
	s.Stop()
	s.Stop() // second stop is a no-op
}
