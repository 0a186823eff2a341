package viewer

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MimeLyc/subview/internal/position"
)

// Registry tracks live sessions by id.
type Registry struct {
	store position.Store

	mu       sync.RWMutex
	sessions map[string]*registered
}

type registered struct {
	session   *Session
	createdAt time.Time
}

func NewRegistry(store position.Store) *Registry {
	return &Registry{
		store:    store,
		sessions: make(map[string]*registered),
	}
}

func (r *Registry) Create() *Session {
	sess := NewSession(uuid.NewString(), r.store)
	r.mu.Lock()
	r.sessions[sess.ID()] = &registered{session: sess, createdAt: time.Now()}
	r.mu.Unlock()
	return sess
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	reg, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return reg.session, nil
}

// Delete closes and forgets the session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	reg, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	reg.session.Close()
	return nil
}

// List returns session ids, oldest first.
func (r *Registry) List() []string {
	r.mu.RLock()
	regs := make([]*registered, 0, len(r.sessions))
	for _, reg := range r.sessions {
		regs = append(regs, reg)
	}
	r.mu.RUnlock()

	sort.Slice(regs, func(i, j int) bool {
		return regs[i].createdAt.Before(regs[j].createdAt)
	})
	ids := make([]string, 0, len(regs))
	for _, reg := range regs {
		ids = append(ids, reg.session.ID())
	}
	return ids
}

// CloseAll closes every session, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	regs := r.sessions
	r.sessions = make(map[string]*registered)
	r.mu.Unlock()
	for _, reg := range regs {
		reg.session.Close()
	}
}
