// Package db persists video sessions.
package db

import (
	"context"

	"videosummary/models"
)

// SessionStore is the durable history of sessions. Get returns an
// apperrors.NotFound error for unknown ids.
type SessionStore interface {
	Upsert(ctx context.Context, s *models.VideoSession) error
	Get(ctx context.Context, id string) (*models.VideoSession, error)
	// List returns every stored session, most recently updated first.
	List(ctx context.Context) ([]*models.VideoSession, error)
	Delete(ctx context.Context, id string) error
}
