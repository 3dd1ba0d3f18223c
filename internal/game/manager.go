// Package game hosts active sessions: one module per session, sessions keyed
// by join code.
package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mgerste/blamewheel/internal/party"
)

var ErrSessionNotFound = errors.New("session not found")

// RoomManager tracks sessions by join code. The factory builds a fresh module
// per session so no state leaks between games.
type RoomManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	active   string // active session code when in single-session mode
	factory  func() *party.Module
}

func NewRoomManager(factory func() *party.Module) *RoomManager {
	return &RoomManager{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

// CreateSession builds and registers a session and kicks off its content
// bootstrap in the background. Dispatches racing the bootstrap fail with
// ErrNotReady until it resolves.
func (rm *RoomManager) CreateSession() (*Session, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	code := randomCode(5)
	for rm.sessions[code] != nil {
		code = randomCode(5)
	}
	sess, err := NewSession(code, rm.factory())
	if err != nil {
		return nil, err
	}
	rm.sessions[code] = sess
	rm.active = code

	go func() {
		if err := sess.Init(context.Background()); err != nil {
			log.Error().Err(err).Str("code", sess.Code).Msg("content bootstrap failed")
		}
	}()
	return sess, nil
}

func (rm *RoomManager) Get(code string) (*Session, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	s := rm.sessions[code]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Active returns the current single-session code and session, if any.
func (rm *RoomManager) Active() (string, *Session) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	if rm.active == "" {
		return "", nil
	}
	return rm.active, rm.sessions[rm.active]
}

// Remove discards a session entirely; there is no partial reset.
func (rm *RoomManager) Remove(code string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.sessions, code)
	if rm.active == code {
		rm.active = ""
	}
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
