package subtitle

import (
	"fmt"

	"golang.org/x/text/language"
)

// Reader reads a subtitle file.
type Reader interface {
	Read() (*File, error)
}

// Writer writes a subtitle file.
type Writer interface {
	Write(path string, subtitle *File) error
}

// Entry is one subtitle line with its time interval.
type Entry struct {
	ID        int    `json:"id"`         // 1-based position after parsing
	StartMs   int64  `json:"start_ms"`   // start offset in milliseconds
	EndMs     int64  `json:"end_ms"`     // end offset in milliseconds
	StartText string `json:"start_text"` // start timestamp as written in the source
	EndText   string `json:"end_text"`   // end timestamp as written in the source
	Text      string `json:"text"`       // display text, may contain '\n'
}

// File is a parsed subtitle file.
type File struct {
	Name     string       `json:"name"`
	Path     string       `json:"path,omitempty"`
	Entries  []Entry      `json:"entries"`
	Language language.Tag `json:"language"`
	Format   string       `json:"format"` // always "SRT" for now
}

// Lookup returns the entry with the given id.
func (f *File) Lookup(id int) (Entry, bool) {
	if f == nil {
		return Entry{}, false
	}
	return lookup(f.Entries, id)
}

func lookup(entries []Entry, id int) (Entry, bool) {
	// ids are assigned by position, so try the direct slot first
	if id >= 1 && id <= len(entries) && entries[id-1].ID == id {
		return entries[id-1], true
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// FormatError reports a malformed subtitle block. The whole parse is
// rejected when one is returned.
type FormatError struct {
	Block  int // 1-based block position
	Line   int // 1-based line number in the input
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("subtitle block %d (line %d): %s", e.Block, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
