package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MimeLyc/subview/internal/position"
	"github.com/MimeLyc/subview/internal/subtitle"
	"github.com/MimeLyc/subview/pkg/log"
)

const subscriberBuffer = 32

// Session serialises all events of one viewer. The subtitle sequence is
// replaced wholesale on every successful load and never mutated.
type Session struct {
	id    string
	store position.Store

	mu          sync.Mutex
	file        *subtitle.File
	generation  uint64
	cursor      *subtitle.Cursor
	activeID    int
	timeMs      int64
	resumeMs    *int64
	media       Media
	mediaSource string
	mediaToken  uint64
	subscribers map[int]chan Event
	nextSubID   int
	closed      bool
}

// NewSession creates a session. store may be nil, in which case positions
// are neither read nor written.
func NewSession(id string, store position.Store) *Session {
	return &Session{
		id:          id,
		store:       store,
		subscribers: make(map[int]chan Event),
	}
}

func (s *Session) ID() string {
	return s.id
}

// LoadSubtitles parses data and, on success, replaces the current sequence.
// On a parse failure the previous sequence stays in place and the
// *subtitle.FormatError is returned.
func (s *Session) LoadSubtitles(ctx context.Context, name string, data []byte) (Snapshot, error) {
	file, err := subtitle.ReadSRTBytes(data, name)
	if err != nil {
		log.Warn("Rejected subtitle upload %q: %v", name, err)
		return Snapshot{}, err
	}
	return s.replace(ctx, file), nil
}

// LoadFile installs an already parsed file.
func (s *Session) LoadFile(ctx context.Context, file *subtitle.File) Snapshot {
	return s.replace(ctx, file)
}

func (s *Session) replace(ctx context.Context, file *subtitle.File) Snapshot {
	resume := s.lookupResume(ctx, file.Name)

	s.mu.Lock()
	s.file = file
	s.generation++
	s.cursor = subtitle.NewCursor(file.Entries)
	s.activeID = 0
	s.resumeMs = resume
	if s.media != nil {
		s.resolveLocked(s.timeMs)
	}
	s.publishLocked(Event{Type: EventSubtitles, Generation: s.generation, ActiveID: s.activeID, TimeMs: s.timeMs})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Info("Session %s loaded %q: %d entries, generation %d", s.id, file.Name, len(file.Entries), snap.Generation)
	return snap
}

// lookupResume never fails: storage problems degrade to "no resume".
func (s *Session) lookupResume(ctx context.Context, name string) *int64 {
	if s.store == nil || name == "" {
		return nil
	}
	ms, found, err := s.store.Get(ctx, name)
	if err != nil {
		log.Warn("Resume lookup for %q failed: %v", name, err)
		return nil
	}
	if !found {
		return nil
	}
	return &ms
}

// AttachMedia replaces the media adapter. Notifications from a previously
// attached adapter are ignored from now on.
func (s *Session) AttachMedia(source string, media Media) {
	s.mu.Lock()
	s.mediaToken++
	token := s.mediaToken
	s.media = media
	s.mediaSource = source
	s.timeMs = 0
	if s.cursor != nil {
		s.cursor.Reset()
	}
	s.activeID = 0
	s.publishLocked(Event{Type: EventMedia, Generation: s.generation})
	s.mu.Unlock()

	if media != nil {
		media.OnTimeAdvanced(func(ms int64) {
			s.mediaAdvanced(token, ms)
		})
	}
}

// DetachMedia drops the media adapter.
func (s *Session) DetachMedia() {
	s.AttachMedia("", nil)
}

func (s *Session) mediaAdvanced(token uint64, ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.mediaToken {
		return
	}
	s.advanceLocked(ms)
}

// Advance reports the playback time for the sequence with the given
// generation and returns the active entry id (0 for none).
func (s *Session) Advance(generation uint64, ms int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return 0, fmt.Errorf("%w: got %d, current %d", ErrStaleGeneration, generation, s.generation)
	}
	if obs, ok := s.media.(timeObserver); ok {
		obs.observe(ms)
	}
	return s.advanceLocked(ms), nil
}

func (s *Session) advanceLocked(ms int64) int {
	prev := s.activeID
	s.resolveLocked(ms)
	if s.activeID != prev {
		s.publishLocked(Event{Type: EventActive, Generation: s.generation, ActiveID: s.activeID, TimeMs: ms})
	}
	return s.activeID
}

func (s *Session) resolveLocked(ms int64) {
	s.timeMs = ms
	if s.cursor == nil {
		s.activeID = 0
		return
	}
	id, ok := s.cursor.Resolve(ms)
	if !ok {
		id = 0
	}
	s.activeID = id
}

// SeekTo moves the media to the start of entry id and records the position.
func (s *Session) SeekTo(ctx context.Context, id int) (int64, error) {
	s.mu.Lock()
	if s.file == nil {
		s.mu.Unlock()
		return 0, ErrNoSubtitles
	}
	entry, ok := s.file.Lookup(id)
	if !ok {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrEntryNotFound, id)
	}
	s.mu.Unlock()

	if err := s.SeekTime(ctx, entry.StartMs); err != nil {
		return 0, err
	}
	return entry.StartMs, nil
}

// SeekTime moves the media to ms and records the position.
func (s *Session) SeekTime(ctx context.Context, ms int64) error {
	if ms < 0 {
		ms = 0
	}

	s.mu.Lock()
	media, token := s.media, s.mediaToken
	s.mu.Unlock()
	if media == nil {
		return ErrMediaUnavailable
	}
	// the adapter may report time synchronously, so call it unlocked
	if err := media.Seek(float64(ms) / 1000); err != nil {
		return fmt.Errorf("seek media: %w", err)
	}

	s.mu.Lock()
	if token != s.mediaToken {
		s.mu.Unlock()
		return ErrMediaUnavailable
	}
	s.resolveLocked(ms)
	s.publishLocked(Event{Type: EventSeek, Generation: s.generation, ActiveID: s.activeID, TimeMs: ms})
	name := s.nameLocked()
	s.mu.Unlock()

	s.savePosition(ctx, name, ms)
	return nil
}

func (s *Session) savePosition(ctx context.Context, name string, ms int64) {
	if s.store == nil || name == "" {
		return
	}
	if err := s.store.Put(ctx, name, ms); err != nil {
		log.Warn("Saving position for %q failed: %v", name, err)
	}
}

// SavePosition stores ms as the resume point of the loaded subtitle file.
// Storage failures are returned so callers can report them.
func (s *Session) SavePosition(ctx context.Context, ms int64) error {
	name := s.Name()
	if name == "" {
		return ErrNoSubtitles
	}
	if s.store == nil {
		return nil
	}
	return s.store.Put(ctx, name, ms)
}

// ForgetPosition deletes the stored resume point of the loaded file.
func (s *Session) ForgetPosition(ctx context.Context) error {
	name := s.Name()
	if name == "" {
		return ErrNoSubtitles
	}
	s.mu.Lock()
	s.resumeMs = nil
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, name)
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nameLocked()
}

func (s *Session) nameLocked() string {
	if s.file == nil {
		return ""
	}
	return s.file.Name
}

// File returns the loaded subtitle file or nil.
func (s *Session) File() *subtitle.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// ActiveID returns the id of the active entry, 0 for none. It is what a
// "sync" action scrolls to.
func (s *Session) ActiveID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:          s.id,
		Generation:  s.generation,
		ActiveID:    s.activeID,
		TimeMs:      s.timeMs,
		MediaSource: s.mediaSource,
		HasMedia:    s.media != nil,
		Entries:     []subtitle.Entry{},
		Language:    "und",
	}
	if s.file != nil {
		snap.Name = s.file.Name
		snap.Entries = s.file.Entries
		snap.Language = subtitle.TrackLanguage(s.file.Language)
	}
	if s.resumeMs != nil {
		v := *s.resumeMs
		snap.ResumeMs = &v
	}
	return snap
}

// Subscribe returns a channel of session events. Slow subscribers miss
// events rather than block the session. cancel must be called when done.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(c)
			}
		})
	}
}

func (s *Session) publishLocked(ev Event) {
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close ends all subscriptions and drops the media adapter.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.mediaToken++
	s.media = nil
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// IsStale reports whether err came from a superseded subtitle generation.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleGeneration)
}
