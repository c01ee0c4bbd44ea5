// Package anchor keeps the viewport stable around history loads. It is pure
// bookkeeping over line offsets; the TUI feeds it scroll positions and
// applies the offsets it hands back.
package anchor

import "time"

// Defaults tuned for a terminal viewport. TopThreshold is in lines from the
// top of the content; Debounce spaces out scroll-driven pagination triggers.
const (
	DefaultTopThreshold    = 5
	DefaultBottomThreshold = 3
	DefaultDebounce        = 200 * time.Millisecond
)

// Controller decides when scrolling should trigger a history load and
// restores the reading position after older content is prepended.
//
// Controller is not safe for concurrent use; it is driven from a single
// update loop.
type Controller struct {
	TopThreshold    int
	BottomThreshold int
	Debounce        time.Duration

	gen      int
	armed    bool
	captured bool

	heightBefore int
	offsetBefore int
}

// New creates a controller with default thresholds.
func New() *Controller {
	return &Controller{
		TopThreshold:    DefaultTopThreshold,
		BottomThreshold: DefaultBottomThreshold,
		Debounce:        DefaultDebounce,
	}
}

// NearTop reports whether the given line offset is close enough to the top
// of the content to warrant loading older history.
func (c *Controller) NearTop(offset int) bool {
	return offset <= c.TopThreshold
}

// FarFromBottom reports whether the view has scrolled far enough up that a
// jump-to-latest affordance should be shown. Pure signal; showing it is the
// caller's business.
func (c *Controller) FarFromBottom(offset, contentHeight, viewHeight int) bool {
	bottom := contentHeight - viewHeight
	if bottom < 0 {
		bottom = 0
	}
	return bottom-offset > c.BottomThreshold
}

// Arm starts (or restarts) the debounce window and returns the generation
// the eventual trigger must present to Fire. Re-arming invalidates any
// pending trigger.
func (c *Controller) Arm() int {
	c.gen++
	c.armed = true
	return c.gen
}

// Fire consumes a debounced trigger. It returns true only when gen is the
// most recent Arm and no Invalidate happened in between; stale generations
// are dropped silently.
func (c *Controller) Fire(gen int) bool {
	if !c.armed || gen != c.gen {
		return false
	}
	c.armed = false
	return true
}

// Invalidate cancels any pending trigger and capture. Called on session
// switch so a debounce from the old transcript cannot fire into the new one.
func (c *Controller) Invalidate() {
	c.gen++
	c.armed = false
	c.captured = false
}

// Capture records the content height and scroll offset immediately before a
// history page is prepended.
func (c *Controller) Capture(contentHeight, offset int) {
	c.heightBefore = contentHeight
	c.offsetBefore = offset
	c.captured = true
}

// Restore returns the offset that keeps the previously visible content in
// place after the prepend grew the content to newHeight. It must be applied
// in the same update pass that set the new content. Returns false when
// nothing was captured or the capture was invalidated.
func (c *Controller) Restore(newHeight int) (int, bool) {
	if !c.captured {
		return 0, false
	}
	c.captured = false
	return c.offsetBefore + (newHeight - c.heightBefore), true
}
