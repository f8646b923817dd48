package desktop

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/deskfolio/cmd/desktop/audio"
	"github.com/gigurra/deskfolio/cmd/desktop/content"
	"github.com/gigurra/deskfolio/cmd/desktop/wm"
)

func testBundle() *content.Result {
	return &content.Result{
		Bundle: content.Bundle{
			BasicInfo: content.BasicInfo{Name: "Mika", Title: "Engineer", Birthday: "1999-01-02"},
			InspiredBy: []content.InspiredBy{
				{ID: "win95", Type: "visual", Label: "Windows 95"},
			},
			BGM: []content.Track{
				{Title: "Night Drive", Artists: []string{"Neon"}, MediaID: "night-drive"},
			},
			Works: []content.Work{
				{ID: "work-1", Tags: []string{"go"}, Description: "first project",
					ReferenceLinks: []content.ReferenceLink{{Text: "Site", Href: "https://example.com/w1"}}},
				{ID: "work-2", Description: "second project"},
			},
		},
		ServerTime: "2026-08-29T12:00:00Z",
		Assets:     map[string][]byte{},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func leftPress(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

// mainModel builds a model that has fetched content and entered the main
// phase through the muted welcome path.
func mainModel(t *testing.T) *model {
	t.Helper()
	m := newModel(&Params{ServerURL: "http://localhost:0", SiteURL: "https://example.com"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(fetchedMsg{result: testBundle()})

	m.Update(key("m"))
	deadline := time.Now().Add(2 * time.Second)
	for !m.switcher.Fired() {
		if time.Now().After(deadline) {
			t.Fatal("welcome gate never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}
	m.Update(tickMsg(time.Now()))
	if m.phase != phaseMain {
		t.Fatal("model did not enter the main phase")
	}
	return m
}

// loopbackHandle echoes commands back as player state reports, the way a
// real player would, without an audio device.
type loopbackHandle struct {
	mu     sync.Mutex
	c      *audio.Controller
	loads  []string
	played bool
}

func (h *loopbackHandle) Load(mediaID string) {
	h.mu.Lock()
	h.loads = append(h.loads, mediaID)
	h.mu.Unlock()
	h.c.HandleStateChange(audio.StateCued)
}

func (h *loopbackHandle) Play() {
	h.mu.Lock()
	cued := len(h.loads) > 0
	if cued {
		h.played = true
	}
	h.mu.Unlock()
	// Play with no track loaded is dropped, not queued.
	if cued {
		h.c.HandleStateChange(audio.StatePlaying)
	}
}

func (h *loopbackHandle) Pause() { h.c.HandleStateChange(audio.StatePaused) }

func (h *loopbackHandle) SetVolume(int) {}

func (h *loopbackHandle) SetQuality(audio.Quality) {}

func (h *loopbackHandle) CurrentTime() (time.Duration, error) { return 0, audio.ErrNoTrackLoaded }

func (h *loopbackHandle) Duration() (time.Duration, error) { return 0, audio.ErrNoTrackLoaded }

func (h *loopbackHandle) playedYet() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.played
}

func TestSoundEntryWaitsForRealPlayback(t *testing.T) {
	m := newModel(&Params{ServerURL: "http://localhost:0"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	h := &loopbackHandle{c: m.playback}
	m.playback.HandleReady(h)

	// Sound entry chosen before any content arrived: the play command hits
	// an empty session and is dropped by the player.
	m.Update(key("p"))
	for i := 0; i < 5; i++ {
		m.Update(tickMsg(time.Now()))
	}
	if m.switcher.Fired() {
		t.Fatal("welcome gate fired before any content arrived")
	}

	m.Update(fetchedMsg{result: testBundle()})

	deadline := time.Now().Add(4 * time.Second)
	for !m.switcher.Fired() {
		if time.Now().After(deadline) {
			t.Fatal("welcome gate never fired after the content arrived")
		}
		m.Update(tickMsg(time.Now()))
		time.Sleep(10 * time.Millisecond)
	}
	if !h.playedYet() {
		t.Fatal("welcome gate fired without playback ever starting")
	}
}

func TestSoundEntryWithoutAudioFallsBackToMuted(t *testing.T) {
	m := newModel(&Params{ServerURL: "http://localhost:0"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	// No handle: the audio device failed to open.

	m.Update(fetchedMsg{result: testBundle()})
	m.Update(key("p"))

	deadline := time.Now().Add(2 * time.Second)
	for !m.switcher.Fired() {
		if time.Now().After(deadline) {
			t.Fatal("sound entry without an audio device held the welcome screen")
		}
		m.Update(tickMsg(time.Now()))
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMutedEntryReachesDesktop(t *testing.T) {
	m := mainModel(t)

	w, ok := m.registry.Find(windowBasicInfo)
	if !ok {
		t.Fatal("basic info window not opened")
	}
	if !w.Position.BottomAnchored {
		t.Error("basic info window should be bottom anchored")
	}
	if w.Kind != wm.KindSingletonInfo {
		t.Errorf("kind = %v", w.Kind)
	}
}

func TestEntryChoiceWaitsForContent(t *testing.T) {
	m := newModel(&Params{ServerURL: "http://localhost:0"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m.Update(key("m"))
	time.Sleep(300 * time.Millisecond) // past the muted fade delay
	m.Update(tickMsg(time.Now()))

	if m.phase != phaseWelcome {
		t.Fatal("entered main before content was ready")
	}

	m.Update(fetchedMsg{result: testBundle()})
	deadline := time.Now().Add(2 * time.Second)
	for m.phase != phaseMain {
		if time.Now().After(deadline) {
			t.Fatal("deferred transition never completed")
		}
		time.Sleep(10 * time.Millisecond)
		m.Update(tickMsg(time.Now()))
	}
}

func TestDigitKeysOpenWorkWindows(t *testing.T) {
	m := mainModel(t)

	m.Update(key("1"))
	if _, ok := m.registry.Find("work-1"); !ok {
		t.Fatal("work-1 window not opened")
	}

	m.Update(key("9")) // out of range
	if got := len(m.registry.Windows()); got != 2 {
		t.Errorf("window count = %d, want 2", got)
	}
}

func TestInspiredByAndShareWindows(t *testing.T) {
	m := mainModel(t)

	m.Update(key("b"))
	if _, ok := m.registry.Find(windowInspiredBy); !ok {
		t.Fatal("inspired-by window not opened")
	}

	m.Update(key("s"))
	if _, ok := m.registry.Find(windowShare); !ok {
		t.Fatal("share window not opened")
	}
	if m.shareQR == "" {
		t.Error("share QR not rendered")
	}
}

func TestTitleBarCloseButton(t *testing.T) {
	m := mainModel(t)
	m.Update(key("1"))

	w, _ := m.registry.Find("work-1")
	x, y, wd, _ := m.windowRect(w)

	m.Update(leftPress(x+wd-3, y))
	if _, ok := m.registry.Find("work-1"); ok {
		t.Fatal("close button did not close the window")
	}
}

func TestTitleBarMinimizeButton(t *testing.T) {
	m := mainModel(t)
	m.Update(key("1"))

	w, _ := m.registry.Find("work-1")
	x, y, wd, _ := m.windowRect(w)

	m.Update(leftPress(x+wd-7, y))
	w, _ = m.registry.Find("work-1")
	if w.Visible {
		t.Fatal("minimize button did not hide the window")
	}

	m.Update(key("u"))
	w, _ = m.registry.Find("work-1")
	if !w.Visible {
		t.Fatal("restore did not re-show the window")
	}
}

func TestDragMovesWindow(t *testing.T) {
	m := mainModel(t)
	m.Update(key("1"))

	w, _ := m.registry.Find("work-1")
	x, y, _, _ := m.windowRect(w)

	m.Update(leftPress(x+2, y)) // grab the title bar
	if m.dragID != "work-1" {
		t.Fatalf("dragID = %q, want work-1", m.dragID)
	}

	m.Update(tea.MouseMsg{X: x + 12, Y: y + 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	w, _ = m.registry.Find("work-1")
	if w.Position.X != x+10 || w.Position.Y != y+5 {
		t.Errorf("position = %+v, want {%d %d}", w.Position, x+10, y+5)
	}

	m.Update(tea.MouseMsg{Action: tea.MouseActionRelease})
	if m.dragID != "" {
		t.Error("drag not released")
	}
}

func TestClickFocusesTopmostWindow(t *testing.T) {
	m := mainModel(t)
	m.Update(key("1"))
	m.Update(key("2"))

	w1, _ := m.registry.Find("work-1")
	w2, _ := m.registry.Find("work-2")
	if w2.ZIndex <= w1.ZIndex {
		t.Fatal("work-2 should start frontmost")
	}

	x, y, _, ht := m.windowRect(w1)
	m.Update(leftPress(x+1, y+ht-2)) // a body cell only work-1 covers

	w1, _ = m.registry.Find("work-1")
	w2, _ = m.registry.Find("work-2")
	if w1.ZIndex <= w2.ZIndex {
		t.Errorf("click did not raise work-1: z1=%d z2=%d", w1.ZIndex, w2.ZIndex)
	}
}

func TestFullScreenRoundTrip(t *testing.T) {
	m := mainModel(t)
	m.Update(key("1"))

	w, _ := m.registry.Find("work-1")
	origX, origY, origW, origH := m.windowRect(w)

	m.Update(key("f"))
	w, _ = m.registry.Find("work-1")
	if !w.FullScreen {
		t.Fatal("window did not enter full screen")
	}
	if w.BeforeMaximize == nil || w.BeforeMaximize.Width != origW || w.BeforeMaximize.Height != origH {
		t.Fatalf("snapshot = %+v", w.BeforeMaximize)
	}

	m.Update(key("f"))
	w, _ = m.registry.Find("work-1")
	if w.FullScreen {
		t.Fatal("window did not leave full screen")
	}
	if w.Position.X != origX || w.Position.Y != origY {
		t.Errorf("restored position = %+v, want {%d %d}", w.Position, origX, origY)
	}
	if w.BeforeMaximize == nil {
		t.Fatal("snapshot cleared before the restore settled")
	}

	m.Update(clearSnapshotMsg{id: "work-1"})
	w, _ = m.registry.Find("work-1")
	if w.BeforeMaximize != nil {
		t.Error("snapshot not cleared")
	}
}

func TestCopyReferenceLinkSetsStatus(t *testing.T) {
	m := mainModel(t)
	m.Update(key("1"))

	m.Update(key("y"))
	// Either the link was copied or the environment has no clipboard; both
	// surface through the status line.
	if m.status == "" {
		t.Error("copy left no status message")
	}
}

func TestViewRendersBothPhases(t *testing.T) {
	m := newModel(&Params{ServerURL: "http://localhost:0", SiteURL: "https://example.com"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	if v := m.View(); !strings.Contains(v, "Enter with sound") {
		t.Errorf("welcome view missing entry menu:\n%s", v)
	}

	m.Update(fetchedMsg{result: testBundle()})
	m.phase = phaseMain
	m.enterMain()
	m.Update(key("1"))

	v := m.View()
	if !strings.Contains(v, "profile") || !strings.Contains(v, "work-1") {
		t.Errorf("main view missing windows:\n%s", v)
	}
	if !strings.Contains(v, "Night Drive") {
		t.Errorf("player bar missing track:\n%s", v)
	}
}

func TestVanishedWorkIsNotRendered(t *testing.T) {
	m := mainModel(t)
	m.registry.Open("ghost", wm.KindDetail, nil)

	if v := m.View(); strings.Contains(v, "ghost") {
		t.Errorf("vanished work still rendered:\n%s", v)
	}
	if _, ok := m.registry.Find("ghost"); !ok {
		t.Error("registry record should survive even when content is missing")
	}
}

func TestFetchFailureOpensWarning(t *testing.T) {
	m := newModel(&Params{ServerURL: "http://localhost:0"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(fetchedMsg{err: errors.New("connection refused")})

	m.phase = phaseMain
	m.enterMain()

	if _, ok := m.registry.Find(windowWarning); !ok {
		t.Fatal("warning window not opened")
	}
	if v := m.View(); !strings.Contains(v, "Could not reach the content server") {
		t.Errorf("warning window missing message:\n%s", v)
	}
}
