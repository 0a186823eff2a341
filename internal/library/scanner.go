package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/subview/pkg/file"
)

// Extensions accepted by the browser player's video picker.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".flv":  true,
	".wmv":  true,
}

var ErrOutsideRoot = errors.New("path is outside the library root")

type Option func(*Scanner)

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Scanner) {
		s.cacheTTL = ttl
	}
}

type scanCache struct {
	version uint64
	scanned time.Time
	library *Library
}

// Scanner lists video/subtitle pairs below a root directory. Results are
// cached briefly and concurrent scans share one walk.
type Scanner struct {
	root  string
	group singleflight.Group

	mu       sync.RWMutex
	cacheTTL time.Duration
	cache    *scanCache
	version  uint64
}

func NewScanner(root string, opts ...Option) *Scanner {
	s := &Scanner{
		root:     filepath.Clean(root),
		cacheTTL: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) Root() string {
	return s.root
}

func (s *Scanner) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.version++
	s.mu.Unlock()
}

func (s *Scanner) Scan(ctx context.Context) (*Library, error) {
	s.mu.RLock()
	version := s.version
	if s.cache != nil && s.cache.version == version && (s.cacheTTL <= 0 || time.Since(s.cache.scanned) < s.cacheTTL) {
		cached := cloneLibrary(s.cache.library)
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do(fmt.Sprintf("scan-%d", version), func() (any, error) {
		lib, err := s.scan(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.version == version {
			s.cache = &scanCache{version: version, scanned: time.Now(), library: lib}
		}
		s.mu.Unlock()
		return lib, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneLibrary(v.(*Library)), nil
}

func (s *Scanner) scan(ctx context.Context) (*Library, error) {
	ret := &Library{Root: s.root, Pairs: make([]Pair, 0)}
	if s.root == "" || s.root == "." {
		return ret, nil
	}
	if _, err := os.Stat(s.root); err != nil {
		if os.IsNotExist(err) {
			return ret, nil
		}
		return nil, err
	}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !videoExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		subs, err := findSubtitles(path)
		if err != nil {
			return err
		}
		for i, sub := range subs {
			if r, err := filepath.Rel(s.root, sub); err == nil {
				subs[i] = filepath.ToSlash(r)
			}
		}
		base := file.Stem(path)
		ret.Pairs = append(ret.Pairs, Pair{
			ID:            filepath.ToSlash(rel),
			Name:          cleanEpisodeName(base),
			Dir:           filepath.ToSlash(filepath.Dir(rel)),
			VideoPath:     path,
			SubtitlePaths: subs,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(ret.Pairs, func(i, j int) bool {
		return ret.Pairs[i].ID < ret.Pairs[j].ID
	})
	return ret, nil
}

// findSubtitles returns "<base>.srt" first, then "<base>.<tag>.srt" files.
func findSubtitles(videoPath string) ([]string, error) {
	return file.Siblings(videoPath, ".srt")
}

// Resolve maps a path relative to the root (or a Pair.ID) to an absolute
// path, refusing anything that escapes the root.
func (s *Scanner) Resolve(rel string) (string, error) {
	if s.root == "" || s.root == "." {
		return "", ErrOutsideRoot
	}
	cleaned := filepath.Clean(filepath.FromSlash("/" + strings.TrimPrefix(rel, "/")))
	full := filepath.Join(s.root, cleaned)
	inside, err := filepath.Rel(s.root, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

func cloneLibrary(lib *Library) *Library {
	if lib == nil {
		return nil
	}
	ret := &Library{Root: lib.Root, Pairs: make([]Pair, len(lib.Pairs))}
	for i, p := range lib.Pairs {
		p.SubtitlePaths = append([]string(nil), p.SubtitlePaths...)
		ret.Pairs[i] = p
	}
	return ret
}

var sonarrPattern = regexp.MustCompile(`(?i)S\d+E(\d+)`)
var qualitySuffixPattern = regexp.MustCompile(`(?i)\s*[-. ](WEBRip|WEBDL|WEB-DL|BluRay|BDRip|HDRip|DVDRip|HDTV|AMZN|NF|DSNP|HULU|ATVP|PMTP|IT|DDP?\d|AAC|x264|x265|HEVC|H\.?264|H\.?265|10bit|\d{3,4}p).*$`)

// cleanEpisodeName shortens Sonarr-style names for display,
// e.g. "Gachiakuta - S01E15 - Clash! WEBRip-1080p" -> "E15 Clash!".
func cleanEpisodeName(basename string) string {
	m := sonarrPattern.FindStringSubmatchIndex(basename)
	if m == nil {
		return basename
	}
	epNum := basename[m[2]:m[3]]
	// quality tags need their leading separator, so strip them first
	after := qualitySuffixPattern.ReplaceAllString(basename[m[1]:], "")
	after = strings.TrimLeft(strings.TrimSpace(after), "-. ")
	after = strings.TrimSpace(after)
	if after != "" {
		return "E" + epNum + " " + after
	}
	return "E" + epNum
}
