package server

import (
	"crypto/subtle"
	"errors"
)

// User-facing validation messages. The browser suite matches on these.
const (
	MsgMissingCredentials = "Username and password are required"
	MsgInvalidCredentials = "Invalid credentials"
)

var (
	ErrMissingCredentials = errors.New(MsgMissingCredentials)
	ErrInvalidCredentials = errors.New(MsgInvalidCredentials)
)

// authenticate checks a username/password pair against users.
// An empty username or password is reported as missing, before any lookup.
func authenticate(users map[string]string, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}
	want, ok := users[username]
	if !ok || subtle.ConstantTimeCompare([]byte(password), []byte(want)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
