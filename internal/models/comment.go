package models

import (
	"time"
)

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentStatusActive   CommentStatus = "active"
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusRejected CommentStatus = "rejected"
)

// MaxCommentLength is the ceiling on comment content, counted in characters.
const MaxCommentLength = 500

// Valid reports whether s is one of the known statuses.
func (s CommentStatus) Valid() bool {
	switch s {
	case CommentStatusActive, CommentStatusPending, CommentStatusRejected:
		return true
	}
	return false
}

type Comment struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Status    CommentStatus `json:"status"`

	Content string `json:"content"`

	// Set for signed-in authors, nil for anonymous posts
	AuthorID *string `json:"author_id"`

	// Anonymous posting fields
	DisplayName *string `json:"display_name"`
	Email       string  `json:"email,omitempty"`
}

// CommentCount is the result of counting the comments collection.
type CommentCount struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}
