package canvas

// Pen tracks one stroke session: whether the pointer is down and where it was
// last seen. The zero value is idle.
type Pen struct {
	drawing bool
	last    Point
}

// Down starts a new path at p.
func (p *Pen) Down(at Point) {
	p.drawing = true
	p.last = at
}

// Move extends the stroke to `to` on c and re-anchors there.
// Reports whether anything was drawn (false while idle).
func (p *Pen) Move(c *Canvas, to Point) bool {
	if !p.drawing {
		return false
	}
	c.Segment(p.last, to)
	p.last = to
	return true
}

// Up ends the stroke.
func (p *Pen) Up() { p.drawing = false }

// Drawing reports whether a stroke is in progress.
func (p *Pen) Drawing() bool { return p.drawing }

// Reset drops any stroke state.
func (p *Pen) Reset() { *p = Pen{} }
