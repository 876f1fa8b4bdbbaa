// Package leads records CV downloads and hands out the download link.
package leads

import (
	"context"
	"errors"
	"time"
)

// Lead is one CV download request.
type Lead struct {
	ID        string
	Name      string
	Email     string
	Company   string
	Locale    string
	Source    string
	UserAgent string
	CreatedAt time.Time
}

// Store persists leads.
type Store interface {
	Create(ctx context.Context, lead Lead) error
	Get(ctx context.Context, id string) (Lead, error)
	Close() error
}

var (
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("leads: not found")
	// ErrDuplicate is returned by Create when the id already exists.
	ErrDuplicate = errors.New("leads: duplicate id")
	// ErrNotConfigured indicates no store was wired.
	ErrNotConfigured = errors.New("leads service: store is not configured")
)

// ValidationError reports an unusable submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
