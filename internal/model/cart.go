package model

// CartLine is a pending, non-durable intent to purchase tickets for one
// event.  Title and PriceCents are display snapshots taken when the line
// was added; checkout re-reads live event state and never trusts them.
type CartLine struct {
	EventID    uint64 `json:"event_id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

// SubtotalCents is the display subtotal from the snapshot price.
func (l CartLine) SubtotalCents() int64 {
	return l.PriceCents * int64(l.Quantity)
}

// Cart is a session-scoped value object aggregating purchase intent.  It
// has no durable identity: the transport layer builds one per request and
// the checkout core never holds cart state between calls.  Lines keep
// insertion order so checkout processes them deterministically.
type Cart struct {
	lines []CartLine
	index map[uint64]int
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{index: make(map[uint64]int)}
}

// AddOrUpdate sets the quantity for an event with replace semantics: an
// existing line for the same event is overwritten, never accumulated, so
// duplicates cannot double-count at checkout.  A quantity of zero or
// less removes the line.
func (c *Cart) AddOrUpdate(line CartLine) {
	if c.index == nil {
		c.index = make(map[uint64]int)
	}
	pos, exists := c.index[line.EventID]
	if line.Quantity <= 0 {
		if exists {
			c.remove(pos)
		}
		return
	}
	if exists {
		c.lines[pos] = line
		return
	}
	c.index[line.EventID] = len(c.lines)
	c.lines = append(c.lines, line)
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len reports the number of lines in the cart.
func (c *Cart) Len() int { return len(c.lines) }

// SubtotalTotalCents sums the display subtotals of all lines.
func (c *Cart) SubtotalTotalCents() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.SubtotalCents()
	}
	return total
}

// Clear removes all lines.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[uint64]int)
}

func (c *Cart) remove(pos int) {
	removed := c.lines[pos]
	c.lines = append(c.lines[:pos], c.lines[pos+1:]...)
	delete(c.index, removed.EventID)
	for i := pos; i < len(c.lines); i++ {
		c.index[c.lines[i].EventID] = i
	}
}
