package identity

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

// UserRecord is a stored account including its password hash.
type UserRecord struct {
	models.User
	PasswordHash string
}

// UserStore persists accounts for the local provider. Emails are stored
// lower-cased; lookups expect a lower-cased email.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*UserRecord, error)
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
}

// PostgresUserStore keeps accounts in the users table.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, email, passwordHash string) (*UserRecord, error) {
	rec := &UserRecord{PasswordHash: passwordHash}
	rec.Email = email
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, email, passwordHash).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return rec, nil
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*UserRecord, error) {
	rec := &UserRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(&rec.ID, &rec.Email, &rec.PasswordHash, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// MemoryUserStore keeps accounts in process memory.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]UserRecord
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]UserRecord)}
}

func (s *MemoryUserStore) Create(_ context.Context, email, passwordHash string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[email]; exists {
		return nil, ErrEmailTaken
	}
	rec := UserRecord{
		User: models.User{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: passwordHash,
	}
	s.users[email] = rec
	return &rec, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &rec, nil
}
