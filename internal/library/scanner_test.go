package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestScanner_FindsPairs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "The Show", "Season 1", "The Show - S01E02 - Pilot WEBRip-1080p.mkv"))
	touch(t, filepath.Join(root, "The Show", "Season 1", "The Show - S01E02 - Pilot WEBRip-1080p.srt"))
	touch(t, filepath.Join(root, "The Show", "Season 1", "The Show - S01E02 - Pilot WEBRip-1080p.zh.srt"))
	touch(t, filepath.Join(root, "movie.MP4"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden", "secret.mp4"))

	lib, err := NewScanner(root).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, lib.Pairs, 2)

	ep := lib.Pairs[0]
	assert.Equal(t, "The Show/Season 1/The Show - S01E02 - Pilot WEBRip-1080p.mkv", ep.ID)
	assert.Equal(t, "E02 Pilot", ep.Name)
	require.Len(t, ep.SubtitlePaths, 2)
	assert.Equal(t, "The Show/Season 1/The Show - S01E02 - Pilot WEBRip-1080p.srt", ep.SubtitlePaths[0])
	assert.Equal(t, "The Show - S01E02 - Pilot WEBRip-1080p.zh.srt", filepath.Base(ep.SubtitlePaths[1]))
	assert.True(t, ep.HasSubtitles())

	movie := lib.Pairs[1]
	assert.Equal(t, "movie.MP4", movie.ID)
	assert.False(t, movie.HasSubtitles())
}

func TestScanner_CachesUntilInvalidated(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp4"))

	s := NewScanner(root, WithCacheTTL(0))
	lib, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, lib.Pairs, 1)

	// returned libraries are copies
	lib.Pairs[0].Name = "changed"

	touch(t, filepath.Join(root, "b.mp4"))
	lib, err = s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, lib.Pairs, 1)
	assert.Equal(t, "a", lib.Pairs[0].Name)

	s.Invalidate()
	lib, err = s.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, lib.Pairs, 2)
}

func TestScanner_MissingRoot(t *testing.T) {
	lib, err := NewScanner(filepath.Join(t.TempDir(), "nope")).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lib.Pairs)
}

func TestScanner_Resolve(t *testing.T) {
	root := t.TempDir()
	s := NewScanner(root)

	got, err := s.Resolve("The Show/ep1.mkv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "The Show", "ep1.mkv"), got)

	// traversal is clamped to the root
	got, err = s.Resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), got)

	_, err = NewScanner("").Resolve("a.mp4")
	require.ErrorIs(t, err, ErrOutsideRoot)
}

func TestCleanEpisodeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gachiakuta - S01E15 - Clash! WEBRip-1080p", "E15 Clash!"},
		{"Show.S02E03.1080p", "E03"},
		{"Show.S02E03.WEB-DL.x264", "E03"},
		{"Show - S02E04 - HDTV", "E04"},
		{"Show.S01E05.The.Title.720p", "E05 The.Title"},
		{"Plain Movie", "Plain Movie"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanEpisodeName(tt.in))
		})
	}
}
