package audio

import (
	"testing"
	"time"
)

func newFadeForTest() (*FadeController, *fakeHandle) {
	h := &fakeHandle{}
	f := NewFadeController(func() Handle { return h })
	return f, h
}

func TestFadeToLinearRamp(t *testing.T) {
	f, h := newFadeForTest()

	<-f.FadeTo(80, 0) // set the starting point directly, no timer
	h.clearVolumes()

	done := f.FadeTo(0, 400*time.Millisecond)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fade did not complete")
	}

	volumes := h.volumeLog()
	if len(volumes) != 20 {
		t.Fatalf("commanded %d volumes, want 20 (400ms / 20ms ticks)", len(volumes))
	}
	if volumes[0] != 76 {
		t.Errorf("first step = %d, want 76", volumes[0])
	}
	if volumes[len(volumes)-1] != 0 {
		t.Errorf("final volume = %d, want exactly 0", volumes[len(volumes)-1])
	}
	for i := 1; i < len(volumes); i++ {
		if volumes[i] > volumes[i-1] {
			t.Fatalf("volume sequence not monotonic at %d: %v", i, volumes)
		}
	}
}

func TestFadeToImmediateWhenAtTarget(t *testing.T) {
	f, h := newFadeForTest()

	done := f.FadeTo(FullVolume, 400*time.Millisecond) // already at 100
	select {
	case <-done:
	default:
		t.Fatal("no-delta fade should resolve synchronously")
	}
	if got := h.volumeLog(); len(got) != 1 || got[0] != FullVolume {
		t.Errorf("volume log = %v, want single snap to 100", got)
	}
}

func TestFadeToZeroDuration(t *testing.T) {
	f, h := newFadeForTest()

	done := f.FadeTo(30, 0)
	select {
	case <-done:
	default:
		t.Fatal("zero-duration fade should resolve synchronously")
	}
	if f.Volume() != 30 {
		t.Errorf("volume = %d, want 30", f.Volume())
	}
	if got := h.volumeLog(); len(got) != 1 {
		t.Errorf("volume log = %v, want one command", got)
	}
}

func TestFadeCancellation(t *testing.T) {
	f, h := newFadeForTest()

	f.FadeTo(0, 200*time.Millisecond)
	time.Sleep(50 * time.Millisecond) // let a few ticks land

	done := f.FadeTo(FullVolume, 100*time.Millisecond)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement fade did not complete")
	}

	settled := len(h.volumeLog())
	time.Sleep(60 * time.Millisecond)
	volumes := h.volumeLog()
	if len(volumes) != settled {
		t.Fatalf("stray tick after completion: %v", volumes[settled:])
	}
	if volumes[len(volumes)-1] != FullVolume {
		t.Errorf("final volume = %d, want %d", volumes[len(volumes)-1], FullVolume)
	}
}

func TestFadeWithoutHandleIsNoOp(t *testing.T) {
	f := NewFadeController(func() Handle { return nil })

	done := f.FadeTo(0, 400*time.Millisecond)
	select {
	case <-done:
	default:
		t.Fatal("fade without a handle should resolve immediately")
	}
	if f.Volume() != FullVolume {
		t.Errorf("volume changed without a handle: %d", f.Volume())
	}
}

func TestPrepareFadeInForResume(t *testing.T) {
	f, h := newFadeForTest()

	f.PrepareFadeInForResume()

	if f.Volume() != 0 {
		t.Errorf("volume = %d, want 0 before resume", f.Volume())
	}
	if got := h.volumeLog(); len(got) != 1 || got[0] != 0 {
		t.Errorf("volume log = %v, want single snap to 0", got)
	}
	if !f.ConsumePendingFadeIn() {
		t.Error("fade-in should be pending")
	}
	if f.ConsumePendingFadeIn() {
		t.Error("pending flag should be consumed once")
	}
}

func TestPrepareImmediatePlayback(t *testing.T) {
	f, _ := newFadeForTest()

	f.PrepareFadeInForResume()
	f.PrepareImmediatePlayback()

	if f.Volume() != FullVolume {
		t.Errorf("volume = %d, want full", f.Volume())
	}
	if f.ConsumePendingFadeIn() {
		t.Error("immediate playback must clear the pending fade-in")
	}
}

func TestPauseSupersession(t *testing.T) {
	f, _ := newFadeForTest()

	seq := f.BeginPause()
	if !f.ShouldCompletePause(seq) {
		t.Fatal("pause should be completable before anything intervenes")
	}

	// A resume bumps the generation and clears the pausing intent.
	f.PrepareFadeInForResume()
	if f.ShouldCompletePause(seq) {
		t.Error("superseded pause must not complete")
	}

	// A second pause gets a fresh generation; the first stays dead.
	seq2 := f.BeginPause()
	if seq2 == seq {
		t.Fatal("generations must not repeat")
	}
	if f.ShouldCompletePause(seq) {
		t.Error("stale generation must not complete")
	}
	if !f.ShouldCompletePause(seq2) {
		t.Error("current generation should complete")
	}
}
