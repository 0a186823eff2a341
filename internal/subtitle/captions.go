package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/MimeLyc/subview/internal/timecode"
)

const vttHeader = "WEBVTT"

// WriteCaptions writes entries as a WebVTT track for the media widget.
// Nothing is written for an empty sequence, so callers can skip attaching
// a track.
func WriteCaptions(w io.Writer, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", vttHeader)
	for _, e := range entries {
		fmt.Fprintf(bw, "%s --> %s\n%s\n\n", vttTimestamp(e.StartText, e.StartMs), vttTimestamp(e.EndText, e.EndMs), e.Text)
	}
	return bw.Flush()
}

// Captions renders entries as WebVTT bytes.
func Captions(entries []Entry) []byte {
	var buf bytes.Buffer
	_ = WriteCaptions(&buf, entries)
	return buf.Bytes()
}

func vttTimestamp(text string, ms int64) string {
	if text == "" {
		text = timecode.Format(ms)
	}
	return timecode.ToVTT(text)
}
