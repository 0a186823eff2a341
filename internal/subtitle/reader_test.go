package subtitle

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MimeLyc/subview/internal/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const twoLines = "1\n00:00:01,000 --> 00:00:02,500\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n\n"

func TestParse_TwoEntries(t *testing.T) {
	entries, err := Parse([]byte(twoLines))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{ID: 1, StartMs: 1000, EndMs: 2500, StartText: "00:00:01,000", EndText: "00:00:02,500", Text: "Hello"}, entries[0])
	assert.Equal(t, Entry{ID: 2, StartMs: 3000, EndMs: 4000, StartText: "00:00:03,000", EndText: "00:00:04,000", Text: "World"}, entries[1])
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "\n\n", "   \r\n"} {
		entries, err := Parse([]byte(in))
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	}
}

func TestParse_RenumbersIDs(t *testing.T) {
	data := "7\n00:00:01,000 --> 00:00:02,000\nA\n\n42\n00:00:03,000 --> 00:00:04,000\nB\n"
	entries, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].ID)
	assert.Equal(t, 2, entries[1].ID)
}

func TestParse_MultilineCRLFAndBOM(t *testing.T) {
	data := "\ufeff1\r\n00:00:01,000 --> 00:00:02,000\r\nfirst line\r\n  second line\r\n\r\n\r\n2\r\n00:00:05,000 --> 00:00:06,000 X1:10 X2:20\r\nlast"
	entries, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first line\n  second line", entries[0].Text)
	assert.Equal(t, "00:00:06,000", entries[1].EndText)
	assert.Equal(t, "last", entries[1].Text)
}

func TestParse_MissingIndexLineAccepted(t *testing.T) {
	entries, err := Parse([]byte("00:00:01,000 --> 00:00:02,000\nno index\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "no index", entries[0].Text)
}

func TestParse_EmptyTextBlock(t *testing.T) {
	entries, err := Parse([]byte("1\n00:00:01,000 --> 00:00:02,000\n\n2\n00:00:03,000 --> 00:00:04,000\nB\n"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "", entries[0].Text)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		block  int
		line   int
		reason string
	}{
		{
			name:   "missing timing line",
			data:   twoLines + "3\njust text\n",
			block:  3,
			line:   10,
			reason: "missing timing line",
		},
		{
			name:   "bad start",
			data:   "1\n00:00:01.000 --> 00:00:02,000\nA\n",
			block:  1,
			line:   2,
			reason: "bad start time",
		},
		{
			name:   "bad end",
			data:   twoLines + "3\n00:00:05,000 --> 5s\nC\n",
			block:  3,
			line:   10,
			reason: "bad end time",
		},
		{
			name:   "missing end",
			data:   "1\n00:00:01,000 -->\nA\n",
			block:  1,
			line:   2,
			reason: "malformed timing line",
		},
		{
			name:   "end before start",
			data:   "1\n00:00:03,000 --> 00:00:02,000\nA\n",
			block:  1,
			line:   2,
			reason: "before start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, entries)

			var fe *FormatError
			require.True(t, errors.As(err, &fe), "want *FormatError, got %T", err)
			assert.Equal(t, tt.block, fe.Block)
			assert.Equal(t, tt.line, fe.Line)
			assert.Contains(t, fe.Error(), tt.reason)
		})
	}
}

func TestParse_TimestampErrorUnwraps(t *testing.T) {
	_, err := Parse([]byte("1\n1:2:3 --> 00:00:02,000\nA\n"))
	var te *timecode.FormatError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "1:2:3", te.Text)
}

func TestReadSRTBytes(t *testing.T) {
	file, err := ReadSRTBytes([]byte(twoLines), "sample.srt")
	require.NoError(t, err)
	require.Len(t, file.Entries, 2)
	assert.Equal(t, "SRT", file.Format)
	assert.Equal(t, "sample.srt", file.Name)

	e, ok := file.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, "World", e.Text)
	_, ok = file.Lookup(3)
	assert.False(t, ok)
}

func TestDefaultReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode01.srt")
	require.NoError(t, os.WriteFile(path, []byte(twoLines), 0o644))

	file, err := NewReader(path).Read()
	require.NoError(t, err)
	assert.Equal(t, "episode01.srt", file.Name)
	assert.Equal(t, path, file.Path)
	assert.Len(t, file.Entries, 2)

	_, err = NewReader(filepath.Join(dir, "missing.srt")).Read()
	require.Error(t, err)

	_, err = NewReader(filepath.Join(dir, "episode01.ass")).Read()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "only SRT"))
}

func TestDetectLanguage(t *testing.T) {
	entries := []Entry{
		{Text: "Hello, world! How are you doing today?"},
		{Text: "こんにちは、世界！今日はいい天気ですね。"},
		{Text: "こんにちは、世界！お元気ですか。"},
		{Text: ""},
	}
	assert.Equal(t, language.Japanese, detectLanguage(entries))
	assert.Equal(t, language.Und, detectLanguage(nil))
}

func TestTrackLanguage(t *testing.T) {
	assert.Equal(t, "ja", TrackLanguage(language.Japanese))
	assert.Equal(t, "zh", TrackLanguage(language.Chinese))
	assert.Equal(t, "und", TrackLanguage(language.Und))
}
