package session

import (
	"context"
	"errors"
	"time"

	"catgroom/internal/models"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive     Status = "active"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether the status ends a processing cycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Session binds one uploaded image to an eventual cat and analysis outcome.
// Exactly one image per session cycle; attaching again overwrites.
type Session struct {
	ID        string             `json:"session_id"`
	CreatedAt time.Time          `json:"created_at"`
	Image     *models.ImageAsset `json:"image,omitempty"`
	CatID     int64              `json:"cat_id,omitempty"`
	Status    Status             `json:"status"`
}

// ErrNotFound is returned by Get for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Store is concurrency-safe keyed session storage with bounded lifetime.
// Mutations on the same session id are mutually exclusive; different ids
// never block one another. Get returns a snapshot: it does not reflect
// writes that race after the read returned.
type Store interface {
	// Create inserts a new active session and returns its opaque id.
	Create(ctx context.Context) (string, error)
	// Get returns a snapshot of the session, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// AttachImage stores the image, moves the session to processing and
	// stamps the upload time. Returns false if the session does not exist.
	AttachImage(ctx context.Context, id string, img models.ImageAsset) (bool, error)
	// LinkCat records the cat id. Idempotent for the same id.
	LinkCat(ctx context.Context, id string, catID int64) (bool, error)
	// SetStatus moves the session to the given lifecycle state.
	SetStatus(ctx context.Context, id string, status Status) (bool, error)
	// Delete removes the session. Returns false if it did not exist.
	Delete(ctx context.Context, id string) (bool, error)
}
