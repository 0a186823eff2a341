package subtitle

// Resolve returns the id of the active entry at nowMs.
//
// The active entry is the last one that has started, even if its own end has
// passed: during a gap between two lines the previous line stays active until
// the next one starts. The scan stops at the first entry whose end is still
// ahead of nowMs. ok is false when no entry has started yet.
func Resolve(entries []Entry, nowMs int64) (id int, ok bool) {
	cand := -1
	for i := range entries {
		if entries[i].StartMs <= nowMs {
			cand = i
		}
		if entries[i].EndMs > nowMs {
			break
		}
	}
	if cand < 0 {
		return 0, false
	}
	return entries[cand].ID, true
}

// Cursor resolves the active entry for a stream of playback times. For
// non-decreasing times each call only scans entries it has not passed yet;
// moving backwards restarts from the head. Results always equal Resolve.
//
// A Cursor is bound to one sequence and is not safe for concurrent use.
type Cursor struct {
	entries []Entry
	last    int64
	started bool
	// every entry before resume has started and ended at or before last
	resume int
}

func NewCursor(entries []Entry) *Cursor {
	return &Cursor{entries: entries}
}

// Reset forgets the scan position.
func (c *Cursor) Reset() {
	c.started = false
	c.resume = 0
	c.last = 0
}

func (c *Cursor) Resolve(nowMs int64) (int, bool) {
	if !c.started || nowMs < c.last {
		c.resume = 0
	}
	c.started = true
	c.last = nowMs

	cand := c.resume - 1
	next := -1
	i := c.resume
	for ; i < len(c.entries); i++ {
		e := c.entries[i]
		if e.StartMs <= nowMs {
			cand = i
		} else if next < 0 {
			next = i
		}
		if e.EndMs > nowMs {
			break
		}
	}

	// resume at the first entry that either has not started or has not
	// ended; everything before it behaves the same for any later time
	switch {
	case next >= 0 && next <= i:
		c.resume = next
	case i < len(c.entries):
		c.resume = i
	default:
		c.resume = len(c.entries)
	}

	if cand < 0 {
		return 0, false
	}
	return c.entries[cand].ID, true
}
