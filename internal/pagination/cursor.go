// Package pagination tracks page position for the browse and search
// contexts of a list screen.
package pagination

// Context selects one of the two independent page cursors.
type Context int

const (
	// Browse is the cursor used when listing by sort key.
	Browse Context = iota
	// Search is the cursor used for free-text search.
	Search
)

// Cursor is a (current page, total pages) pair. Current starts at 1; total
// is unknown until SetTotal is called. Bounds are checked by callers before
// SetCurrent, not by the cursor.
type Cursor struct {
	current    int
	total      int
	totalKnown bool
}

// NewCursor returns a cursor on page 1 with an unknown total.
func NewCursor() Cursor {
	return Cursor{current: 1}
}

// Current returns the current page.
func (c *Cursor) Current() int { return c.current }

// SetCurrent sets the current page.
func (c *Cursor) SetCurrent(p int) { c.current = p }

// Total returns the known total page count, or 0 when unknown.
func (c *Cursor) Total() int { return c.total }

// TotalKnown reports whether a decode has reported a total yet.
func (c *Cursor) TotalKnown() bool { return c.totalKnown }

// SetTotal records the total page count reported by a successful decode,
// overwriting any previous value.
func (c *Cursor) SetTotal(t int) {
	c.total = t
	c.totalKnown = true
}

// InRange reports whether p is a valid page for the known total.
func (c *Cursor) InRange(p int) bool {
	return c.totalKnown && p >= 1 && p <= c.total
}

// HasNext reports whether a page after the current one exists.
func (c *Cursor) HasNext() bool {
	return c.totalKnown && c.current < c.total
}

// HasPrev reports whether a page before the current one exists.
func (c *Cursor) HasPrev() bool {
	return c.current > 1
}

// Reset moves back to page 1 and keeps the total.
func (c *Cursor) Reset() { c.current = 1 }

// Cursors holds the browse and search cursors. They never affect each other.
type Cursors struct {
	Browse Cursor
	Search Cursor
}

// NewCursors returns both cursors on page 1.
func NewCursors() *Cursors {
	return &Cursors{Browse: NewCursor(), Search: NewCursor()}
}

// For returns the cursor for the given context.
func (cs *Cursors) For(ctx Context) *Cursor {
	if ctx == Search {
		return &cs.Search
	}
	return &cs.Browse
}
