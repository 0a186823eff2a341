package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	entries, err := Parse([]byte(twoLines))
	require.NoError(t, err)
	assert.Equal(t, twoLines, string(Export(entries)))
}

func TestExport_RoundTripCanonicalises(t *testing.T) {
	// hours written with three digits, minutes beyond 59
	src := "5\n000:61:00,000 --> 000:61:02,000\nline one\nline two\n\n9\n01:02:03,004 --> 01:02:04,000\nnext\n"
	entries, err := Parse([]byte(src))
	require.NoError(t, err)

	out := Export(entries)
	again, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, again, len(entries))
	for i := range entries {
		assert.Equal(t, entries[i].ID, again[i].ID)
		assert.Equal(t, entries[i].StartMs, again[i].StartMs)
		assert.Equal(t, entries[i].EndMs, again[i].EndMs)
		assert.Equal(t, entries[i].Text, again[i].Text)
	}
	assert.Equal(t, "01:01:00,000", again[0].StartText)
}

func TestDefaultWriter(t *testing.T) {
	entries, err := Parse([]byte(twoLines))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.srt")
	require.NoError(t, NewWriter().Write(path, &File{Entries: entries}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, twoLines, string(data))

	require.Error(t, NewWriter().Write(path, nil))
}

func TestCaptions(t *testing.T) {
	entries, err := Parse([]byte(twoLines))
	require.NoError(t, err)

	want := "WEBVTT\n\n00:00:01.000 --> 00:00:02.500\nHello\n\n00:00:03.000 --> 00:00:04.000\nWorld\n\n"
	assert.Equal(t, want, string(Captions(entries)))
	assert.Empty(t, Captions(nil))
}

func TestCaptions_FallsBackToOffsets(t *testing.T) {
	entries := []Entry{{ID: 1, StartMs: 1500, EndMs: 2000, Text: "x"}}
	assert.Equal(t, "WEBVTT\n\n00:00:01.500 --> 00:00:02.000\nx\n\n", string(Captions(entries)))
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in   string
		want OutputFormat
	}{
		{"", OutputSRT},
		{"SRT", OutputSRT},
		{".vtt", OutputVTT},
		{"webvtt", OutputVTT},
		{"ssa", OutputASS},
		{"ass", OutputASS},
		{"dfxp", OutputTTML},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseOutputFormat("sub")
	assert.ErrorIs(t, err, ErrUnknownOutput)
}

func TestConvert(t *testing.T) {
	entries, err := Parse([]byte(twoLines))
	require.NoError(t, err)

	var srt, vtt, ass, ttml strings.Builder
	require.NoError(t, Convert(&srt, "ep1", entries, OutputSRT))
	require.NoError(t, Convert(&vtt, "ep1", entries, OutputVTT))
	require.NoError(t, Convert(&ass, "ep1", entries, OutputASS))
	require.NoError(t, Convert(&ttml, "ep1", entries, OutputTTML))

	assert.Equal(t, twoLines, srt.String())
	assert.Equal(t, string(Captions(entries)), vtt.String())

	assert.Contains(t, ass.String(), "[Script Info]")
	assert.Contains(t, ass.String(), "0:00:01.00")
	assert.Contains(t, ass.String(), "Hello")
	assert.Contains(t, ttml.String(), "<tt")
	assert.Contains(t, ttml.String(), "World")
}

func TestConvert_EmptyAndUnknown(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Convert(&buf, "none", nil, OutputASS))
	assert.Empty(t, buf.String())

	assert.ErrorIs(t, Convert(&buf, "none", nil, OutputFormat("sub")), ErrUnknownOutput)
}
