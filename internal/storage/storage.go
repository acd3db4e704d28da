package storage

import (
	"context"

	"github.com/xaenox/member-qa/internal/models"
)

// Store persists a fetched corpus snapshot so a later startup can fall back
// to it when the upstream cannot be drained.
type Store interface {
	SaveMessages(ctx context.Context, msgs []models.Message) error
	LoadMessages(ctx context.Context) ([]models.Message, error)
	Close() error
}
