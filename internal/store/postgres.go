package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
)

const commentColumns = `id, created_at, content, author_id, display_name, email, status`

// PostgresStore keeps comments in the comments table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, c models.Comment) (*models.Comment, error) {
	if !c.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (content, author_id, display_name, email, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.Content, nullString(c.AuthorID), nullString(c.DisplayName), c.Email, string(c.Status)).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) QueryLatest(ctx context.Context, limit int, status models.CommentStatus) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, err
	}
	return scanComments(rows)
}

func (s *PostgresStore) QueryAll(ctx context.Context, orderDesc bool) ([]models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments ORDER BY created_at ASC, id ASC`
	if orderDesc {
		query = `SELECT ` + commentColumns + ` FROM comments ORDER BY created_at DESC, id DESC`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanComments(rows)
}

func (s *PostgresStore) Count(ctx context.Context, status *models.CommentStatus) (int64, error) {
	var total int64
	var err error
	if status == nil {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&total)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE status = $1`, string(*status)).Scan(&total)
	}
	return total, err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanComments(rows *sql.Rows) ([]models.Comment, error) {
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var (
			c           models.Comment
			status      string
			authorID    sql.NullString
			displayName sql.NullString
			email       sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.Content, &authorID, &displayName, &email, &status); err != nil {
			return nil, err
		}
		c.Status = models.CommentStatus(status)
		c.AuthorID = stringPtr(authorID)
		c.DisplayName = stringPtr(displayName)
		c.Email = email.String
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
