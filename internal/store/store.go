package store

import (
	"errors"

	"github.com/fjod/go_basket/internal/basket"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore holds the customization sessions in progress. Calls on the
// same session are serialized; calls on different sessions are not.
type SessionStore interface {
	// Create registers a session and returns its id
	Create(session *basket.Session) (string, error)

	// View runs fn with access to the session
	View(id string, fn func(*basket.Session) error) error

	// Update runs fn with access to the session and refreshes its expiry
	Update(id string, fn func(*basket.Session) error) error

	// Finish runs fn and discards the session if fn succeeds
	Finish(id string, fn func(*basket.Session) error) error

	// Delete discards a session
	Delete(id string) error

	// Close shuts down the store and any background processes
	Close() error
}
