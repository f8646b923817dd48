package desktop

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/deskfolio/cmd/common"
	"github.com/gigurra/deskfolio/cmd/desktop/audio"
	"github.com/gigurra/deskfolio/cmd/desktop/content"
	"github.com/gigurra/deskfolio/cmd/desktop/wm"
	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

var (
	welcomeBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 3)
	welcomeTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	selectedItemStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	playerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	warnStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func (m *model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.phase == phaseWelcome {
		return m.welcomeView()
	}
	return m.mainView()
}

func (m *model) welcomeView() string {
	var b strings.Builder

	title := "portfolio desktop"
	if m.bundle != nil && m.bundle.Bundle.BasicInfo.Name != "" {
		title = m.bundle.Bundle.BasicInfo.Name + "'s desktop"
	}
	b.WriteString(welcomeTitleStyle.Render(title))
	b.WriteString("\n\n")

	p := m.progress.get()
	switch {
	case m.fetchErr != nil:
		b.WriteString(warnStyle.Render("could not reach the content server"))
	case p.Complete:
		b.WriteString(dimStyle.Render("content loaded"))
	default:
		b.WriteString(fmt.Sprintf("loading media %s %d/%d", bar(p.Fraction, 16), p.Loaded, p.Total))
	}
	b.WriteString("\n\n")

	options := []string{"Enter with sound", "Enter muted"}
	for i, opt := range options {
		if i == m.welcomeCursor {
			b.WriteString(selectedItemStyle.Render("▸ " + opt))
		} else {
			b.WriteString(dimStyle.Render("  " + opt))
		}
		b.WriteString("\n")
	}

	if m.switcher.Spinner() {
		b.WriteString("\n" + dimStyle.Render("waiting for the stream to start..."))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		welcomeBoxStyle.Render(b.String()))
}

func (m *model) mainView() string {
	desk := m.renderDesktop()
	return strings.Join([]string{desk, m.renderDock(), m.renderPlayerBar(), m.renderStatusLine()}, "\n")
}

// renderDesktop composites all visible windows onto a rune grid in z-order.
func (m *model) renderDesktop() string {
	deskH := m.height - chromeRows
	if deskH < 1 {
		deskH = 1
	}

	grid := make([][]rune, deskH)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", m.width))
	}

	windows := lo.Filter(m.registry.Windows(), func(w wm.Window, _ int) bool { return w.Visible })
	sort.Slice(windows, func(i, k int) bool { return windows[i].ZIndex < windows[k].ZIndex })

	joinedWorks := map[string]content.Work{}
	if m.bundle != nil {
		for _, j := range wm.JoinVisibleDetail(m.registry, m.bundle.Bundle.Works,
			func(w content.Work) string { return w.ID }) {
			joinedWorks[j.Window.ID] = j.Content
		}
	}

	for _, w := range windows {
		if w.Kind == wm.KindDetail && w.ID != windowShare && w.ID != windowWarning {
			// A detail window whose content vanished from the bundle is not
			// rendered at all.
			if _, ok := joinedWorks[w.ID]; !ok {
				continue
			}
		}
		m.drawWindow(grid, w)
	}

	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func (m *model) drawWindow(grid [][]rune, w wm.Window) {
	x, y, wd, ht := m.windowRect(w)
	if wd < 10 || ht < 2 {
		return // terminal too small for chrome
	}
	title, body := m.windowContent(w)

	put := func(row, col int, r rune) {
		if row < 0 || row >= len(grid) || col < 0 || col >= len(grid[row]) {
			return
		}
		grid[row][col] = r
	}

	// Title bar with minimize/maximize/close buttons.
	top := make([]rune, wd)
	for i := range top {
		top[i] = '─'
	}
	top[0] = '┌'
	top[wd-1] = '┐'
	if wd > 14 {
		label := []rune(" " + runewidth.Truncate(title, wd-12, "…") + " ")
		copy(top[1:], label)
	}
	top[wd-7] = '-'
	top[wd-5] = '□'
	top[wd-3] = '×'
	for i, r := range top {
		put(y, x+i, r)
	}

	for row := 1; row < ht-1; row++ {
		line := ""
		if row-1 < len(body) {
			line = body[row-1]
		}
		line = runewidth.FillRight(runewidth.Truncate(line, wd-2, "…"), wd-2)
		put(y+row, x, '│')
		for i, r := range []rune(line) {
			put(y+row, x+1+i, r)
		}
		put(y+row, x+wd-1, '│')
	}

	put(y+ht-1, x, '└')
	for i := 1; i < wd-1; i++ {
		put(y+ht-1, x+i, '─')
	}
	put(y+ht-1, x+wd-1, '┘')
}

// windowRect resolves a window's on-screen frame, including bottom anchoring
// and full screen.
func (m *model) windowRect(w wm.Window) (x, y, wd, ht int) {
	deskH := m.height - chromeRows
	if w.FullScreen {
		return 0, 0, m.width, deskH
	}

	wd, ht = m.windowSize(w)
	x = w.Position.X
	if w.Position.BottomAnchored {
		y = deskH - ht
	} else {
		y = w.Position.Y
	}
	if y < 0 {
		y = 0
	}
	return x, y, wd, ht
}

func (m *model) windowSize(w wm.Window) (wd, ht int) {
	_, body := m.windowContent(w)

	switch w.Kind {
	case wm.KindSingletonInfo:
		wd = 44
	case wm.KindInspiredBy:
		wd = 40
	default:
		wd = 48
	}
	for _, line := range body {
		if lw := runewidth.StringWidth(line) + 2; lw > wd {
			wd = lw
		}
	}
	if wd > m.width {
		wd = m.width
	}

	ht = len(body) + 2
	if deskH := m.height - chromeRows; ht > deskH {
		ht = deskH
	}
	return wd, ht
}

// windowContent yields a window's title and body lines.
func (m *model) windowContent(w wm.Window) (string, []string) {
	switch w.ID {
	case windowBasicInfo:
		return "profile", m.basicInfoLines()
	case windowInspiredBy:
		return "inspired by", m.inspiredByLines()
	case windowShare:
		lines := strings.Split(strings.TrimRight(m.shareQR, "\n"), "\n")
		return "share", append(lines, "", m.siteURL)
	case windowWarning:
		body := []string{"Could not reach the content server.", ""}
		if m.fetchErr != nil {
			body = append(body, wrap(m.fetchErr.Error(), 44)...)
		}
		return "warning", body
	}

	if m.bundle != nil {
		if work, ok := lo.Find(m.bundle.Bundle.Works, func(c content.Work) bool { return c.ID == w.ID }); ok {
			return work.ID, m.workLines(work)
		}
	}
	return w.ID, []string{"content unavailable"}
}

func (m *model) basicInfoLines() []string {
	if m.bundle == nil {
		return []string{"loading..."}
	}
	info := m.bundle.Bundle.BasicInfo
	lines := []string{
		info.Name,
		info.Title,
		"born " + info.Birthday,
	}
	if m.bundle.ServerTime != "" {
		lines = append(lines, "", "server time "+m.bundle.ServerTime)
	}
	badges := len(info.Badges.Upper) + len(info.Badges.Lower)
	if badges > 0 {
		lines = append(lines, fmt.Sprintf("%d badges", badges))
	}
	return lines
}

func (m *model) inspiredByLines() []string {
	if m.bundle == nil {
		return []string{"loading..."}
	}
	return lo.Map(m.bundle.Bundle.InspiredBy, func(e content.InspiredBy, _ int) string {
		return fmt.Sprintf("%s (%s)", e.Label, e.Type)
	})
}

func (m *model) workLines(work content.Work) []string {
	var lines []string
	if len(work.Tags) > 0 {
		lines = append(lines, "# "+strings.Join(work.Tags, ", "), "")
	}
	lines = append(lines, wrap(work.Description, 44)...)
	if len(work.ReferenceLinks) > 0 {
		lines = append(lines, "")
		for _, link := range work.ReferenceLinks {
			lines = append(lines, fmt.Sprintf("• %s <%s>", link.Text, link.Href))
		}
	}
	return lines
}

func (m *model) renderDock() string {
	hidden := lo.Filter(m.registry.Windows(), func(w wm.Window, _ int) bool { return !w.Visible })
	if len(hidden) == 0 {
		return dimStyle.Render(" dock: (empty)")
	}
	names := lo.Map(hidden, func(w wm.Window, _ int) string {
		title, _ := m.windowContent(w)
		return "[" + title + "]"
	})
	return dimStyle.Render(" dock: ") + strings.Join(names, " ")
}

func (m *model) renderPlayerBar() string {
	track, ok := m.playlist.Current()
	if !ok {
		return playerStyle.Render(" ♪ no tracks")
	}

	icon := "∙"
	switch m.playback.State() {
	case audio.StatePlaying:
		icon = "▶"
	case audio.StatePaused:
		icon = "⏸"
	case audio.StateBuffering:
		icon = "…"
	}

	clock := ""
	if h := m.playback.Handle(); h != nil {
		cur, errCur := h.CurrentTime()
		dur, errDur := h.Duration()
		if errCur == nil && errDur == nil {
			clock = "  " + common.FormatDuration(cur) + "/" + common.FormatDuration(dur)
		}
	}

	percent := m.sampler.Percent()
	return playerStyle.Render(fmt.Sprintf(" %s %s / %s  %s %3.0f%%%s",
		icon, track.Title, strings.Join(track.Artists, ", "), bar(percent/100, 20), percent, clock))
}

func (m *model) renderStatusLine() string {
	if m.status != "" {
		return statusStyle.Render(" " + m.status)
	}
	return dimStyle.Render(" p play/pause  n next  1-9 works  b inspired  i profile  s share  y copy link  f max  z min  x close  u restore  q quit")
}

// bar renders a fixed-width progress bar for a 0..1 fraction.
func bar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// wrap breaks text into lines of at most width display cells.
func wrap(text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case runewidth.StringWidth(line)+1+runewidth.StringWidth(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
