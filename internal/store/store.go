// Package store holds the persistence adapters for the comments collection.
package store

import (
	"context"
	"errors"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
)

// ErrInvalidStatus is returned by Insert for a comment whose status is not
// one of the known moderation states.
var ErrInvalidStatus = errors.New("invalid comment status")

// CommentStore is a thin pass-through to the service that durably keeps comments.
type CommentStore interface {
	// Insert stores c and returns it with the generated id and created_at.
	Insert(ctx context.Context, c models.Comment) (*models.Comment, error)
	// QueryLatest returns up to limit comments with the given status, newest first.
	QueryLatest(ctx context.Context, limit int, status models.CommentStatus) ([]models.Comment, error)
	// QueryAll returns every comment regardless of status.
	QueryAll(ctx context.Context, orderDesc bool) ([]models.Comment, error)
	// Count returns the number of comments, restricted to status when non-nil.
	Count(ctx context.Context, status *models.CommentStatus) (int64, error)
	Ping(ctx context.Context) error
}
