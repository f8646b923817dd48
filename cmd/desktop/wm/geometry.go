package wm

// Default layout constants, in abstract layout units. The desktop command
// overrides them with cell-scaled values since a terminal viewport is much
// smaller than the original design surface.
const (
	DefaultAnchorX = 100
	DefaultAnchorY = 100
	DefaultStep    = 50

	// Assumed bounding box for boundary checks. Actual window size is not
	// known at placement time, so the policy works with a fixed estimate.
	DefaultAssumedWidth  = 1000
	DefaultAssumedHeight = 400
)

// Policy computes default window placement: a fixed anchor for the first
// window of a cascading kind, then a diagonal cascade off the frontmost
// visible window, falling back to the anchor whenever the cascade would push
// the assumed bounding box past the viewport edges. Policy is stateless.
type Policy struct {
	AnchorX int
	AnchorY int
	Step    int

	AssumedWidth  int
	AssumedHeight int

	ViewportWidth  int
	ViewportHeight int
}

// DefaultPolicy returns a policy with the default layout constants and an
// unset viewport. Callers must set the viewport before placing windows.
func DefaultPolicy() Policy {
	return Policy{
		AnchorX:       DefaultAnchorX,
		AnchorY:       DefaultAnchorY,
		Step:          DefaultStep,
		AssumedWidth:  DefaultAssumedWidth,
		AssumedHeight: DefaultAssumedHeight,
	}
}

func (p Policy) anchor() Position {
	return Position{X: p.AnchorX, Y: p.AnchorY}
}

// Place computes the position for a new window. An explicit position always
// wins. Singleton-info windows anchor to the bottom edge at the anchor X;
// all other kinds cascade.
func (p Policy) Place(windows []Window, kind Kind, explicit *Position) Position {
	if explicit != nil {
		return *explicit
	}

	if kind == KindSingletonInfo {
		return Position{X: p.AnchorX, BottomAnchored: true}
	}

	frontmost, ok := frontmostVisible(windows)
	if !ok {
		return p.anchor()
	}

	// A bottom-anchored frontmost window has no absolute Y to cascade from.
	if frontmost.Position.BottomAnchored {
		return p.anchor()
	}

	next := Position{
		X: frontmost.Position.X + p.Step,
		Y: frontmost.Position.Y + p.Step,
	}

	maxX := p.ViewportWidth - p.AssumedWidth
	maxY := p.ViewportHeight - p.AssumedHeight
	if next.X > maxX || next.Y > maxY {
		return p.anchor()
	}

	return next
}
