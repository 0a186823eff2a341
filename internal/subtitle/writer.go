package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/MimeLyc/subview/internal/timecode"
)

// DefaultWriter writes SRT files to disk.
type DefaultWriter struct{}

func NewWriter() Writer {
	return &DefaultWriter{}
}

func (w *DefaultWriter) Write(path string, subtitle *File) error {
	if subtitle == nil {
		return fmt.Errorf("subtitle data is empty")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return WriteSRT(file, subtitle.Entries)
}

// WriteSRT writes entries as SRT. Index lines are the entry ids and
// timestamps are re-rendered from the millisecond offsets.
func WriteSRT(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		fmt.Fprintf(bw, "%d\n", e.ID)
		fmt.Fprintf(bw, "%s --> %s\n", timecode.Format(e.StartMs), timecode.Format(e.EndMs))
		fmt.Fprintf(bw, "%s\n\n", e.Text)
	}
	return bw.Flush()
}

// Export renders entries as SRT bytes.
func Export(entries []Entry) []byte {
	var buf bytes.Buffer
	_ = WriteSRT(&buf, entries)
	return buf.Bytes()
}
