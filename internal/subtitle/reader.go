package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MimeLyc/subview/internal/timecode"
)

const timingArrow = "-->"

// DefaultReader reads SRT files from disk.
type DefaultReader struct {
	path string
}

func NewReader(path string) Reader {
	return &DefaultReader{
		path: path,
	}
}

func (r *DefaultReader) Read() (*File, error) {
	if !strings.HasSuffix(strings.ToLower(r.path), ".srt") {
		return nil, fmt.Errorf("only SRT format subtitle files are supported: %s", r.path)
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("subtitle file does not exist: %s", r.path)
		}
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}

	file, err := ReadSRTBytes(data, filepath.Base(r.path))
	if err != nil {
		return nil, err
	}
	file.Path = r.path
	return file, nil
}

// ReadSRT parses SRT content from r. name is the display name of the file and
// becomes File.Name.
func ReadSRT(r io.Reader, name string) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle content: %w", err)
	}
	return ReadSRTBytes(data, name)
}

func ReadSRTBytes(data []byte, name string) (*File, error) {
	entries, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:     name,
		Entries:  entries,
		Language: detectLanguage(entries),
		Format:   "SRT",
	}, nil
}

type block struct {
	firstLine int
	lines     []string
}

// Parse converts SRT text into entries. Ids are re-numbered 1..n in input
// order; the literal index lines are ignored. Any malformed block rejects
// the whole input. Empty input yields an empty sequence.
func Parse(data []byte) ([]Entry, error) {
	blocks := splitBlocks(data)
	entries := make([]Entry, 0, len(blocks))

	for i, b := range blocks {
		entry, err := parseBlock(b, i+1)
		if err != nil {
			return nil, err
		}
		entry.ID = len(entries) + 1
		entries = append(entries, entry)
	}
	return entries, nil
}

func splitBlocks(data []byte) []block {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var blocks []block
	var current *block
	for n, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if current != nil {
				blocks = append(blocks, *current)
				current = nil
			}
			continue
		}
		if current == nil {
			current = &block{firstLine: n + 1}
		}
		current.lines = append(current.lines, line)
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}

func parseBlock(b block, position int) (Entry, error) {
	timing := 0
	if !strings.Contains(b.lines[0], timingArrow) {
		// index line
		timing = 1
	}
	if timing >= len(b.lines) || !strings.Contains(b.lines[timing], timingArrow) {
		return Entry{}, &FormatError{
			Block:  position,
			Line:   b.firstLine + timing,
			Reason: "missing timing line",
		}
	}

	line := b.firstLine + timing
	startText, endText, err := splitTiming(b.lines[timing])
	if err != nil {
		return Entry{}, &FormatError{Block: position, Line: line, Reason: "malformed timing line", Err: err}
	}

	startMs, err := timecode.Parse(startText)
	if err != nil {
		return Entry{}, &FormatError{Block: position, Line: line, Reason: "bad start time", Err: err}
	}
	endMs, err := timecode.Parse(endText)
	if err != nil {
		return Entry{}, &FormatError{Block: position, Line: line, Reason: "bad end time", Err: err}
	}
	if endMs < startMs {
		return Entry{}, &FormatError{
			Block:  position,
			Line:   line,
			Reason: fmt.Sprintf("end %s is before start %s", endText, startText),
		}
	}

	return Entry{
		StartMs:   startMs,
		EndMs:     endMs,
		StartText: startText,
		EndText:   endText,
		Text:      strings.Join(b.lines[timing+1:], "\n"),
	}, nil
}

// splitTiming returns the two timestamp substrings of "<start> --> <end>".
// Cue settings after the end timestamp are dropped.
func splitTiming(line string) (string, string, error) {
	idx := strings.Index(line, timingArrow)
	start := strings.TrimSpace(line[:idx])
	rest := strings.Fields(line[idx+len(timingArrow):])
	if start == "" {
		return "", "", fmt.Errorf("missing start timestamp")
	}
	if len(rest) == 0 {
		return "", "", fmt.Errorf("missing end timestamp")
	}
	return start, rest[0], nil
}
