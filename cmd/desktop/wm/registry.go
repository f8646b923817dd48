// Package wm holds the desktop window state: which windows are open, where
// they sit, their stacking order, and their minimize/maximize status.
package wm

import (
	"github.com/samber/lo"
)

// Kind determines a window's default placement rules.
type Kind string

const (
	// KindSingletonInfo windows are bottom-anchored singletons (profile,
	// basic info).
	KindSingletonInfo Kind = "singleton-info"
	// KindDetail windows cascade from the frontmost visible window.
	KindDetail Kind = "detail"
	// KindInspiredBy is the inspired-by panel; placement-wise it cascades
	// like a detail window.
	KindInspiredBy Kind = "inspired-by"
)

// Position is a window's top-left placement. Bottom-anchored windows carry
// no absolute Y; the renderer resolves them against the viewport's bottom
// edge.
type Position struct {
	X              int
	Y              int
	BottomAnchored bool
}

// Geometry is a full position/size snapshot, captured when a window enters
// full screen so the exact frame can be restored later.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Window is one open window's persisted state.
type Window struct {
	ID         string
	Kind       Kind
	Position   Position
	ZIndex     int
	Visible    bool // false means minimized; state is retained
	FullScreen bool

	// BeforeMaximize is set while the window is full screen and deliberately
	// kept after restore until ClearBeforeMaximize: the renderer still needs
	// the old frame for one more paint during the restore transition.
	BeforeMaximize *Geometry
}

// Registry owns the collection of window records. Commands are applied
// atomically in the order issued. The registry is driven from a single
// event loop and is not safe for concurrent use.
type Registry struct {
	Policy  Policy
	windows []Window
}

// NewRegistry creates a registry seeded with the given windows.
func NewRegistry(policy Policy, seed ...Window) *Registry {
	return &Registry{Policy: policy, windows: append([]Window(nil), seed...)}
}

// Windows returns a copy of all records, in insertion order.
func (r *Registry) Windows() []Window {
	return append([]Window(nil), r.windows...)
}

// Find returns the record for id, if any.
func (r *Registry) Find(id string) (Window, bool) {
	return lo.Find(r.windows, func(w Window) bool { return w.ID == id })
}

func (r *Registry) index(id string) int {
	for i := range r.windows {
		if r.windows[i].ID == id {
			return i
		}
	}
	return -1
}

// maxZ returns the highest z-index among all records, or 0 when empty.
func (r *Registry) maxZ() int {
	max := 0
	for _, w := range r.windows {
		if w.ZIndex > max {
			max = w.ZIndex
		}
	}
	return max
}

// Open shows a window. Re-opening an existing id re-shows and re-fronts it
// instead of duplicating; a new id gets policy placement and joins at the
// front of the stack.
func (r *Registry) Open(id string, kind Kind, explicit *Position) {
	if i := r.index(id); i >= 0 {
		r.windows[i].Visible = true
		r.windows[i].ZIndex = r.maxZ() + 1
		return
	}

	pos := r.Policy.Place(r.windows, kind, explicit)
	r.windows = append(r.windows, Window{
		ID:       id,
		Kind:     kind,
		Position: pos,
		ZIndex:   r.maxZ() + 1,
		Visible:  true,
	})
}

// Close removes the record entirely; a later Open starts from default
// placement again. Unknown ids are ignored.
func (r *Registry) Close(id string) {
	r.windows = lo.Reject(r.windows, func(w Window, _ int) bool { return w.ID == id })
}

// Minimize hides a window while retaining its record and geometry.
func (r *Registry) Minimize(id string) {
	if i := r.index(id); i >= 0 {
		r.windows[i].Visible = false
	}
}

// Focus brings a window to the front of the stack.
func (r *Registry) Focus(id string) {
	if i := r.index(id); i >= 0 {
		r.windows[i].ZIndex = r.maxZ() + 1
	}
}

// Move overwrites a window's position. Dragging a bottom-anchored window
// gives it an absolute Y from then on. Stacking order is unchanged.
func (r *Registry) Move(id string, pos Position) {
	if i := r.index(id); i >= 0 {
		r.windows[i].Position = pos
	}
}

// ToggleFullScreen flips the full-screen flag. Entering full screen stores
// the supplied geometry snapshot (when measurable) and brings the window to
// the front. Leaving full screen restores the snapshot's position but keeps
// the snapshot itself until ClearBeforeMaximize, so the renderer can read it
// during the restore transition. Without a snapshot the flag simply inverts.
func (r *Registry) ToggleFullScreen(id string, snapshot *Geometry) {
	i := r.index(id)
	if i < 0 {
		return
	}
	w := &r.windows[i]

	if !w.FullScreen {
		if snapshot != nil {
			w.BeforeMaximize = snapshot
		}
		w.FullScreen = true
		w.ZIndex = r.maxZ() + 1
		return
	}

	if w.BeforeMaximize != nil {
		w.Position = Position{X: w.BeforeMaximize.X, Y: w.BeforeMaximize.Y}
	}
	w.FullScreen = false
}

// ClearBeforeMaximize drops the stored geometry snapshot once the restore
// transition has visually completed. This is a separate command from
// ToggleFullScreen: clearing eagerly makes the window restore to the wrong
// size for one paint.
func (r *Registry) ClearBeforeMaximize(id string) {
	if i := r.index(id); i >= 0 {
		r.windows[i].BeforeMaximize = nil
	}
}

// FrontmostVisible returns the visible window with the highest z-index.
func (r *Registry) FrontmostVisible() (Window, bool) {
	return frontmostVisible(r.windows)
}

func frontmostVisible(windows []Window) (Window, bool) {
	visible := lo.Filter(windows, func(w Window, _ int) bool { return w.Visible })
	if len(visible) == 0 {
		return Window{}, false
	}
	return lo.MaxBy(visible, func(a, b Window) bool { return a.ZIndex > b.ZIndex }), true
}

// Joined pairs a visible detail window with its content record.
type Joined[T any] struct {
	Window  Window
	Content T
}

// JoinVisibleDetail left-joins visible detail windows against externally
// supplied content by id, silently dropping windows whose content no longer
// exists.
func JoinVisibleDetail[T any](r *Registry, contents []T, idOf func(T) string) []Joined[T] {
	byID := lo.KeyBy(contents, idOf)
	return lo.FilterMap(r.windows, func(w Window, _ int) (Joined[T], bool) {
		if w.Kind != KindDetail || !w.Visible {
			return Joined[T]{}, false
		}
		c, ok := byID[w.ID]
		if !ok {
			return Joined[T]{}, false
		}
		return Joined[T]{Window: w, Content: c}, true
	})
}
