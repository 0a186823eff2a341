package library

// Pair is a video file and the subtitle files found next to it.
type Pair struct {
	ID            string   `json:"id"` // video path relative to the library root
	Name          string   `json:"name"`
	Dir           string   `json:"dir"`
	VideoPath     string   `json:"-"`
	SubtitlePaths []string `json:"subtitle_paths"` // relative to the library root
}

// HasSubtitles reports whether at least one sibling subtitle exists.
func (p Pair) HasSubtitles() bool {
	return len(p.SubtitlePaths) > 0
}

type Library struct {
	Root  string `json:"root"`
	Pairs []Pair `json:"pairs"`
}
