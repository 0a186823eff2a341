package viewer

import (
	"sync"
	"time"
)

// RemoteMedia stands in for a player running in a browser. Its clock is
// whatever the browser last reported; seeks are delivered to the browser as
// session events.
type RemoteMedia struct {
	mu sync.Mutex
	ms int64
}

func NewRemoteMedia() *RemoteMedia {
	return &RemoteMedia{}
}

func (m *RemoteMedia) Seek(seconds float64) error {
	m.mu.Lock()
	m.ms = int64(seconds * 1000)
	m.mu.Unlock()
	return nil
}

func (m *RemoteMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.ms) / 1000
}

// OnTimeAdvanced does nothing. Browser time arrives through
// Session.Advance, which carries the subtitle generation.
func (m *RemoteMedia) OnTimeAdvanced(func(ms int64)) {}

func (m *RemoteMedia) observe(ms int64) {
	m.mu.Lock()
	m.ms = ms
	m.mu.Unlock()
}

// ClockMedia is a wall-clock player with no picture, used by the terminal
// follower. Tick publishes the current time to listeners.
type ClockMedia struct {
	now func() time.Time

	mu        sync.Mutex
	offset    time.Duration
	startedAt time.Time
	playing   bool
	listeners []func(int64)
}

func NewClockMedia(now func() time.Time) *ClockMedia {
	if now == nil {
		now = time.Now
	}
	return &ClockMedia{now: now}
}

func (m *ClockMedia) positionLocked() time.Duration {
	if !m.playing {
		return m.offset
	}
	return m.offset + m.now().Sub(m.startedAt)
}

func (m *ClockMedia) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	m.mu.Lock()
	m.offset = time.Duration(seconds * float64(time.Second))
	m.startedAt = m.now()
	m.mu.Unlock()
	m.Tick()
	return nil
}

func (m *ClockMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionLocked().Seconds()
}

func (m *ClockMedia) OnTimeAdvanced(fn func(ms int64)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *ClockMedia) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		return
	}
	m.startedAt = m.now()
	m.playing = true
}

func (m *ClockMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return
	}
	m.offset = m.positionLocked()
	m.playing = false
}

func (m *ClockMedia) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Tick reports the current position to every listener.
func (m *ClockMedia) Tick() {
	m.mu.Lock()
	ms := m.positionLocked().Milliseconds()
	listeners := append([]func(int64){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(ms)
	}
}
