package storage

import (
	"context"
	"time"

	"github.com/Spkap/GATIS/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if username or email is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves user by username
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// IncrementGenerations atomically increments the user's generation counter
	// Returns ErrUserNotFound if user doesn't exist
	IncrementGenerations(ctx context.Context, username string) error

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, username string, lastLogin time.Time) error
}
