// Package viewer holds the state of one viewing session: the loaded subtitle
// sequence, the media adapter for the loaded source and the active line.
package viewer

import (
	"errors"

	"github.com/MimeLyc/subview/internal/subtitle"
)

var (
	// ErrMediaUnavailable is returned by seeks while no media is attached.
	// Nothing changes when it is returned.
	ErrMediaUnavailable = errors.New("no media loaded")
	// ErrStaleGeneration rejects time notifications computed against a
	// subtitle sequence that has since been replaced.
	ErrStaleGeneration = errors.New("stale subtitle generation")
	ErrEntryNotFound   = errors.New("subtitle entry not found")
	ErrNoSubtitles     = errors.New("no subtitles loaded")
	ErrSessionNotFound = errors.New("session not found")
)

// Media is what a session needs from a media player widget.
type Media interface {
	Seek(seconds float64) error
	CurrentTime() float64
	// OnTimeAdvanced registers fn to be called with the playback time in
	// milliseconds at the widget's own cadence.
	OnTimeAdvanced(fn func(ms int64))
}

// timeObserver is implemented by adapters whose clock lives on the client
// and is only learned from time notifications.
type timeObserver interface {
	observe(ms int64)
}

type EventType string

const (
	EventActive    EventType = "active"
	EventSeek      EventType = "seek"
	EventSubtitles EventType = "subtitles"
	EventMedia     EventType = "media"
)

// Event is published to session subscribers.
type Event struct {
	Type       EventType `json:"type"`
	Generation uint64    `json:"generation"`
	ActiveID   int       `json:"active_id"`
	TimeMs     int64     `json:"time_ms"`
}

// Snapshot is a read-only view of a session. ActiveID 0 means no entry is
// active.
type Snapshot struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Generation  uint64           `json:"generation"`
	Language    string           `json:"language"`
	Entries     []subtitle.Entry `json:"entries"`
	ActiveID    int              `json:"active_id"`
	TimeMs      int64            `json:"time_ms"`
	MediaSource string           `json:"media_source,omitempty"`
	HasMedia    bool             `json:"has_media"`
	ResumeMs    *int64           `json:"resume_ms,omitempty"`
}
