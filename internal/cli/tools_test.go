package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)


func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movie.srt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseCmd(t *testing.T) {
	path := writeSample(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	out, err := runCLI(t, "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "movie.srt: 1 entries")
	assert.Contains(t, out, `00:00:01,000 --> 00:00:02,000  "Hello"`)

	out, err = runCLI(t, "parse", "--json", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"start_ms": 1000`)
}

func TestParseCmd_Malformed(t *testing.T) {
	path := writeSample(t, "1\n00:00:01 --> 00:00:02\nHello\n")
	_, err := runCLI(t, "parse", path)
	require.Error(t, err)
}

func TestExportCmd(t *testing.T) {
	path := writeSample(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,500\nWorld\n")
	outPath := filepath.Join(t.TempDir(), "out.srt")

	_, err := runCLI(t, "export", path, "-o", outPath)
	require.NoError(t, err)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,500\nWorld\n\n", string(data))
}

func TestExportCmd_Formats(t *testing.T) {
	path := writeSample(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	out, err := runCLI(t, "export", "--format", "ttml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "<tt")
	assert.Contains(t, out, "Hello")

	_, err = runCLI(t, "export", "-f", "sub", path)
	require.Error(t, err)
}

func TestCaptionsCmd(t *testing.T) {
	path := writeSample(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	out, err := runCLI(t, "captions", path)
	require.NoError(t, err)
	assert.Equal(t, "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n\n", out)
}

func TestResolveCmd(t *testing.T) {
	path := writeSample(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,500\nWorld\n")

	tests := []struct {
		name string
		at   string
		want string
	}{
		{name: "before first", at: "500", want: "00:00:00,500: no active line"},
		{name: "inside", at: "00:00:01,500", want: "#1"},
		{name: "gap keeps previous", at: "2500", want: "#1"},
		{name: "second", at: "00:00:04,000", want: "#2"},
		{name: "after last", at: "99000", want: "#2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, "resolve", path, tt.at)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	_, err := runCLI(t, "resolve", path, "1:2:3")
	require.Error(t, err)
}

func TestPositionCmd(t *testing.T) {
	t.Setenv("POSITION_BACKEND", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "positions.db"))

	_, err := runCLI(t, "position", "put", "movie.srt", "00:01:00,000")
	require.NoError(t, err)

	out, err := runCLI(t, "position", "get", "movie.srt")
	require.NoError(t, err)
	assert.Equal(t, "movie.srt\t60000\t00:01:00,000\n", out)

	out, err = runCLI(t, "position", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 0 expired positions")

	_, err = runCLI(t, "position", "delete", "movie.srt")
	require.NoError(t, err)

	_, err = runCLI(t, "position", "get", "movie.srt")
	require.Error(t, err)
}

func TestRootCmd_LogFile(t *testing.T) {
	path := writeSample(t, "1\n00:00:01,000 --> 00:00:02,000\nHello\n")
	logPath := filepath.Join(t.TempDir(), "logs", "subview.log")

	_, err := runCLI(t, "--log-file", logPath, "parse", path)
	require.NoError(t, err)

	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}
