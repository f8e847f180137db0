// Package identity tracks the signed-in user and their hydrated profile.
package identity

import (
	"context"
	"sync"
	"time"
)

// Session describes an authenticated user as reported by the auth layer.
type Session struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Provider surfaces the current session and notifies on sign-in/sign-out.
// A nil session from Session or a callback means signed out.
type Provider interface {
	Session(ctx context.Context) (*Session, error)
	OnSessionChange(fn func(*Session)) (cancel func())
}

// StaticProvider holds a session in memory and lets callers swap it,
// notifying listeners. Used by tests and by the server-side auth flow
// after a successful login.
type StaticProvider struct {
	mu        sync.Mutex
	session   *Session
	listeners map[int]func(*Session)
	nextID    int
}

// NewStaticProvider returns a provider seeded with the given session.
func NewStaticProvider(session *Session) *StaticProvider {
	return &StaticProvider{
		session:   session,
		listeners: make(map[int]func(*Session)),
	}
}

// Session returns the current session, or nil when signed out.
func (p *StaticProvider) Session(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session, nil
}

// OnSessionChange registers a listener. The returned cancel removes it.
func (p *StaticProvider) OnSessionChange(fn func(*Session)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Set replaces the current session and notifies listeners.
func (p *StaticProvider) Set(session *Session) {
	p.mu.Lock()
	p.session = session
	fns := make([]func(*Session), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(session)
	}
}
