package desktop

import (
	"context"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/gigurra/deskfolio/cmd/desktop/audio"
	"github.com/gigurra/deskfolio/cmd/desktop/content"
	"github.com/gigurra/deskfolio/cmd/desktop/viewswitch"
	"github.com/gigurra/deskfolio/cmd/desktop/wm"
	"github.com/samber/lo"
	"github.com/skip2/go-qrcode"
)

type phase int

const (
	phaseWelcome phase = iota
	phaseMain
)

// chromeRows is the dock + player bar + status line below the desktop area.
const chromeRows = 3

type tickMsg time.Time

type fetchedMsg struct {
	result *content.Result
	err    error
}

// clearSnapshotMsg drops a window's maximize snapshot once the restore has
// visually settled.
type clearSnapshotMsg struct{ id string }

// progressBox shares the preload progress between the fetch goroutine and
// the event loop.
type progressBox struct {
	mu sync.Mutex
	p  content.Progress
}

func (b *progressBox) set(p content.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.p = p
}

func (b *progressBox) get() content.Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.p
}

type model struct {
	width  int
	height int

	phase         phase
	welcomeCursor int // 0 = enter with sound, 1 = enter muted
	autoMuted     bool

	siteURL  string
	client   *content.Client
	progress *progressBox
	bundle   *content.Result
	fetchErr error

	registry *wm.Registry
	playlist *audio.Playlist
	playback *audio.Controller
	controls audio.Controls
	sampler  *audio.Sampler
	switcher *viewswitch.Switcher

	cued      bool
	lastState audio.State

	dragID             string
	dragOffX, dragOffY int

	shareQR string

	status      string
	statusSetAt time.Time
}

func newModel(params *Params) *model {
	playlist := audio.NewPlaylist()
	playback := audio.NewController(playlist)

	controls := playback.Controls()

	m := &model{
		siteURL:   params.SiteURL,
		client:    content.NewClient(params.ServerURL),
		progress:  &progressBox{},
		registry:  wm.NewRegistry(tuiPolicy()),
		playlist:  playlist,
		playback:  playback,
		controls:  controls,
		sampler:   audio.NewSampler(playback.Handle, nil),
		switcher:  newSwitcher(controls),
		autoMuted: params.Muted,
		lastState: audio.StateUnstarted,
	}
	m.client.OnProgress = m.progress.set
	return m
}

func (m *model) Init() tea.Cmd {
	if m.autoMuted {
		m.switcher.ChooseMuted()
	}
	return tea.Batch(tickCmd(), m.fetchCmd(), tea.EnterAltScreen)
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		result, err := m.client.Fetch(context.Background())
		return fetchedMsg{result: result, err: err}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.registry.Policy.ViewportWidth = msg.Width
		m.registry.Policy.ViewportHeight = msg.Height - chromeRows

	case fetchedMsg:
		if msg.err != nil {
			m.fetchErr = msg.err
			// Desktop notification in addition to the warning window, in
			// case the terminal is in the background.
			_ = beeep.Alert("deskfolio", "Could not reach the content server", "")
			// Nothing more is coming; let the welcome gate proceed so the
			// warning window can be shown.
			m.switcher.SetReady(true)
			return m, nil
		}
		m.bundle = msg.result
		m.playlist.Commit(lo.Map(msg.result.Bundle.BGM, func(t content.Track, _ int) audio.Track {
			return audio.Track{
				Title:      t.Title,
				Artists:    t.Artists,
				ArtworkURL: t.Artwork,
				MediaID:    t.MediaID,
			}
		}))
		m.switcher.SetReady(true)

	case tickMsg:
		m.tick()
		return m, tickCmd()

	case clearSnapshotMsg:
		m.registry.ClearBeforeMaximize(msg.id)

	case tea.KeyMsg:
		if m.phase == phaseWelcome {
			return m.updateWelcomeKeys(msg)
		}
		return m.updateMainKeys(msg)

	case tea.MouseMsg:
		if m.phase == phaseMain {
			return m.updateMouse(msg)
		}
	}

	return m, nil
}

// tick runs the per-frame bookkeeping: feed the welcome gate, flip into the
// main phase once it fires, cue the first track, auto-advance at track end,
// expire the status message.
func (m *model) tick() {
	// The gate only trusts the player-reported state. The optimistic intent
	// flips on a play command even when the player dropped it (no track
	// loaded yet), which must not count as an observable start.
	m.switcher.Observe(m.sampler.Percent(), m.playback.ConfirmedState() == audio.StatePlaying)

	if m.phase == phaseWelcome && m.switcher.Fired() {
		m.enterMain()
	}

	if !m.cued && m.playback.Handle() != nil {
		if track, ok := m.playlist.Current(); ok {
			m.playback.Handle().Load(track.MediaID)
			m.cued = true
		}
	}

	// A sound entry chosen before the first track was cued issued its play
	// against an empty session; reissue it now that a track is cued.
	if m.switcher.AwaitingStart() && m.playback.ConfirmedState() == audio.StateCued {
		m.controls.Play()
	}

	// A sound entry that can never start holds the welcome screen forever;
	// once the fetch has settled, degrade it to the muted path. No device,
	// no tracks, or a failed media load (unstarted after cueing) all qualify.
	if (m.bundle != nil || m.fetchErr != nil) && m.switcher.AwaitingStart() {
		if m.playback.Handle() == nil || m.playlist.Len() == 0 ||
			(m.cued && m.playback.ConfirmedState() == audio.StateUnstarted) {
			m.switcher.AbandonPlayback()
		}
	}

	state := m.playback.State()
	if state == audio.StateEnded && m.lastState != audio.StateEnded {
		m.playback.Next()
	}
	m.lastState = state

	if m.status != "" && time.Since(m.statusSetAt) > 3*time.Second {
		m.status = ""
	}
}

func (m *model) enterMain() {
	m.phase = phaseMain
	m.registry.Open(windowBasicInfo, wm.KindSingletonInfo, nil)
	if m.fetchErr != nil {
		m.registry.Open(windowWarning, wm.KindDetail, nil)
	}
}

func (m *model) setStatus(s string) {
	m.status = s
	m.statusSetAt = time.Now()
}

func (m *model) updateWelcomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k", "down", "j", "tab":
		m.welcomeCursor = 1 - m.welcomeCursor
	case "enter":
		if m.welcomeCursor == 0 {
			m.switcher.ChoosePlay()
		} else {
			m.switcher.ChooseMuted()
		}
	case "p":
		m.switcher.ChoosePlay()
	case "m":
		m.switcher.ChooseMuted()
	}
	return m, nil
}

func (m *model) updateMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "p":
		if m.playback.IsPlaying() {
			m.controls.Pause()
		} else {
			m.controls.Play()
		}

	case "n":
		m.controls.Next()

	case "i":
		m.registry.Open(windowBasicInfo, wm.KindSingletonInfo, nil)

	case "b":
		m.registry.Open(windowInspiredBy, wm.KindInspiredBy, nil)

	case "s":
		if qr, err := qrcode.New(m.siteURL, qrcode.Medium); err == nil {
			m.shareQR = qr.ToSmallString(false)
			m.registry.Open(windowShare, wm.KindDetail, nil)
		}

	case "y":
		m.copyFocusedReferenceLink()

	case "x":
		if w, ok := m.registry.FrontmostVisible(); ok {
			m.registry.Close(w.ID)
		}

	case "z":
		if w, ok := m.registry.FrontmostVisible(); ok {
			m.registry.Minimize(w.ID)
		}

	case "u":
		m.restoreMinimized()

	case "f":
		if w, ok := m.registry.FrontmostVisible(); ok {
			return m, m.toggleFullScreen(w)
		}

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.openWorkByIndex(int(key[0] - '1'))
	}

	return m, nil
}

// toggleFullScreen snapshots the current frame on the way in. On the way out
// the snapshot is kept for the restore paint and dropped shortly after.
func (m *model) toggleFullScreen(w wm.Window) tea.Cmd {
	if !w.FullScreen {
		x, y, wd, ht := m.windowRect(w)
		m.registry.ToggleFullScreen(w.ID, &wm.Geometry{X: x, Y: y, Width: wd, Height: ht})
		return nil
	}

	m.registry.ToggleFullScreen(w.ID, nil)
	id := w.ID
	return tea.Tick(viewswitch.FadeDuration, func(time.Time) tea.Msg {
		return clearSnapshotMsg{id: id}
	})
}

func (m *model) openWorkByIndex(i int) {
	if m.bundle == nil || i < 0 || i >= len(m.bundle.Bundle.Works) {
		return
	}
	m.registry.Open(m.bundle.Bundle.Works[i].ID, wm.KindDetail, nil)
}

func (m *model) restoreMinimized() {
	hidden := lo.Filter(m.registry.Windows(), func(w wm.Window, _ int) bool { return !w.Visible })
	if len(hidden) == 0 {
		return
	}
	last := lo.MaxBy(hidden, func(a, b wm.Window) bool { return a.ZIndex > b.ZIndex })
	m.registry.Open(last.ID, last.Kind, nil)
}

// copyFocusedReferenceLink puts the focused work's first reference link on
// the system clipboard.
func (m *model) copyFocusedReferenceLink() {
	w, ok := m.registry.FrontmostVisible()
	if !ok || m.bundle == nil {
		return
	}
	work, ok := lo.Find(m.bundle.Bundle.Works, func(c content.Work) bool { return c.ID == w.ID })
	if !ok || len(work.ReferenceLinks) == 0 {
		return
	}
	link := work.ReferenceLinks[0]
	if err := clipboard.WriteAll(link.Href); err != nil {
		m.setStatus("clipboard unavailable")
		return
	}
	m.setStatus("copied " + link.Href)
}

func (m *model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m.mousePress(msg.X, msg.Y)

	case tea.MouseActionMotion:
		if m.dragID != "" {
			x := msg.X - m.dragOffX
			y := msg.Y - m.dragOffY
			if x < 0 {
				x = 0
			}
			if y < 0 {
				y = 0
			}
			// Dragging pins a bottom-anchored window to an absolute Y.
			m.registry.Move(m.dragID, wm.Position{X: x, Y: y})
		}

	case tea.MouseActionRelease:
		m.dragID = ""
	}

	return m, nil
}

func (m *model) mousePress(x, y int) (tea.Model, tea.Cmd) {
	w, ok := m.topWindowAt(x, y)
	if !ok {
		return m, nil
	}
	m.registry.Focus(w.ID)

	wx, wy, wd, _ := m.windowRect(w)
	if y == wy {
		// Title bar: buttons right to left are close, maximize, minimize.
		switch x {
		case wx + wd - 3:
			m.registry.Close(w.ID)
		case wx + wd - 5:
			return m, m.toggleFullScreen(w)
		case wx + wd - 7:
			m.registry.Minimize(w.ID)
		default:
			m.dragID = w.ID
			m.dragOffX = x - wx
			m.dragOffY = y - wy
		}
	}

	return m, nil
}

// topWindowAt returns the topmost visible window containing the point.
func (m *model) topWindowAt(x, y int) (wm.Window, bool) {
	windows := lo.Filter(m.registry.Windows(), func(w wm.Window, _ int) bool { return w.Visible })
	hits := lo.Filter(windows, func(w wm.Window, _ int) bool {
		wx, wy, wd, ht := m.windowRect(w)
		return x >= wx && x < wx+wd && y >= wy && y < wy+ht
	})
	if len(hits) == 0 {
		return wm.Window{}, false
	}
	return lo.MaxBy(hits, func(a, b wm.Window) bool { return a.ZIndex > b.ZIndex }), true
}
