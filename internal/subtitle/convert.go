package subtitle

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
)

// OutputFormat names a format entries can be exported to.
type OutputFormat string

const (
	OutputSRT  OutputFormat = "srt"
	OutputVTT  OutputFormat = "vtt"
	OutputASS  OutputFormat = "ass"
	OutputTTML OutputFormat = "ttml"
)

var ErrUnknownOutput = errors.New("unknown output format")

var outputTypes = map[OutputFormat]string{
	OutputSRT:  "application/x-subrip; charset=utf-8",
	OutputVTT:  "text/vtt; charset=utf-8",
	OutputASS:  "text/x-ssa; charset=utf-8",
	OutputTTML: "application/ttml+xml; charset=utf-8",
}

// ParseOutputFormat accepts a format name or file extension, case-insensitive.
// An empty name means SRT.
func ParseOutputFormat(name string) (OutputFormat, error) {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	switch name {
	case "":
		return OutputSRT, nil
	case "ssa":
		return OutputASS, nil
	case "webvtt":
		return OutputVTT, nil
	case "xml", "dfxp":
		return OutputTTML, nil
	}
	f := OutputFormat(name)
	if _, ok := outputTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOutput, name)
	}
	return f, nil
}

func (f OutputFormat) ContentType() string {
	return outputTypes[f]
}

func (f OutputFormat) Ext() string {
	return "." + string(f)
}

// Convert writes entries in the given format. An empty sequence writes
// nothing for every format but SRT, which writes an empty file too.
func Convert(w io.Writer, name string, entries []Entry, format OutputFormat) error {
	switch format {
	case OutputSRT:
		return WriteSRT(w, entries)
	case OutputVTT:
		return WriteCaptions(w, entries)
	case OutputASS, OutputTTML:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, format)
	}
	if len(entries) == 0 {
		return nil
	}

	subs := toAstisub(name, entries)
	if format == OutputASS {
		return subs.WriteToSSA(w)
	}
	return subs.WriteToTTML(w)
}

func toAstisub(name string, entries []Entry) *astisub.Subtitles {
	subs := astisub.NewSubtitles()
	subs.Metadata = &astisub.Metadata{Title: name}
	for _, e := range entries {
		item := &astisub.Item{
			StartAt: time.Duration(e.StartMs) * time.Millisecond,
			EndAt:   time.Duration(e.EndMs) * time.Millisecond,
		}
		for _, text := range strings.Split(e.Text, "\n") {
			item.Lines = append(item.Lines, astisub.Line{
				Items: []astisub.LineItem{{Text: text}},
			})
		}
		subs.Items = append(subs.Items, item)
	}
	return subs
}
