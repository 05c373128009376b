package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/thesyncim/logine2e/internal/clock"
)

// sessionCookie is both the cookie name and the securecookie value name.
const sessionCookie = "session"

// ErrNoSession is returned when a token does not name a live session.
var ErrNoSession = errors.New("no active session")

type session struct {
	username string
	expires  time.Time
}

// SessionStore keeps logged-in sessions in memory. Session ids are signed
// with securecookie before they leave the process, so the same encoded value
// serves as the browser cookie and the API bearer token.
type SessionStore struct {
	codec *securecookie.SecureCookie
	clock clock.Clock
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

// NewSessionStore creates a store whose sessions live for ttl. A nil hashKey
// generates a random signing key.
func NewSessionStore(hashKey []byte, ttl time.Duration, clk clock.Clock) *SessionStore {
	if hashKey == nil {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	if clk == nil {
		clk = clock.System{}
	}
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(ttl / time.Second))
	return &SessionStore{
		codec:    codec,
		clock:    clk,
		ttl:      ttl,
		sessions: make(map[string]session),
	}
}

// Create starts a session for username and returns its encoded token.
func (s *SessionStore) Create(username string) (string, error) {
	id := uuid.NewString()
	token, err := s.codec.Encode(sessionCookie, id)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	now := s.clock.Now()
	s.mu.Lock()
	s.sweepLocked(now)
	s.sessions[id] = session{username: username, expires: now.Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

// Lookup returns the username owning token.
func (s *SessionStore) Lookup(token string) (string, error) {
	id, err := s.decode(token)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", ErrNoSession
	}
	if !s.clock.Now().Before(sess.expires) {
		delete(s.sessions, id)
		return "", ErrNoSession
	}
	return sess.username, nil
}

// Delete ends the session named by token. Ending an unknown session is
// not an error.
func (s *SessionStore) Delete(token string) error {
	id, err := s.decode(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// sweepLocked drops every session expired at now. s.mu must be held.
func (s *SessionStore) sweepLocked(now time.Time) {
	for id, sess := range s.sessions {
		if !now.Before(sess.expires) {
			delete(s.sessions, id)
		}
	}
}

// Len reports the number of stored sessions. Expired sessions are counted
// until the next Create or a lookup of their token removes them.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) decode(token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}
	var id string
	if err := s.codec.Decode(sessionCookie, token, &id); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return id, nil
}
