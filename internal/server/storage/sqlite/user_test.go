package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spkap/GATIS/internal/models"
	"github.com/Spkap/GATIS/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func testUser(username, email string) *models.User {
	return &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		CreatedAt:    time.Now(),
	}
}

func TestUserStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := testUser("alice", "alice@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	retrieved, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, "alice", retrieved.Username)
	assert.Equal(t, "alice@example.com", retrieved.Email)
	assert.Equal(t, user.PasswordHash, retrieved.PasswordHash)
	assert.Equal(t, 0, retrieved.Generations)
	assert.Nil(t, retrieved.LastLogin)
}

func TestUserStorage_GetUserByUsername_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_CreateUser_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	first := testUser("duplicate", "first@example.com")
	require.NoError(t, s.CreateUser(ctx, first))

	second := testUser("duplicate", "second@example.com")
	err := s.CreateUser(ctx, second)
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)

	// Существующая запись не изменилась
	retrieved, err := s.GetUserByUsername(ctx, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, first.ID, retrieved.ID)
	assert.Equal(t, "first@example.com", retrieved.Email)
}

func TestUserStorage_CreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateUser(ctx, testUser("alice", "same@example.com")))

	err := s.CreateUser(ctx, testUser("bob", "same@example.com"))
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestUserStorage_IncrementGenerations(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateUser(ctx, testUser("alice", "alice@example.com")))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.IncrementGenerations(ctx, "alice"))
	}

	user, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, user.Generations)
}

func TestUserStorage_IncrementGenerations_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.IncrementGenerations(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_IncrementGenerations_Concurrent(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateUser(ctx, testUser("alice", "alice@example.com")))

	// Инкремент выполняется одним UPDATE: конкурентные вызовы
	// не должны терять обновления
	const workers = 20

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.IncrementGenerations(ctx, "alice")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
	}

	user, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, workers, user.Generations)
}

func TestUserStorage_UpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateUser(ctx, testUser("alice", "alice@example.com")))

	loginTime := time.Now()
	require.NoError(t, s.UpdateLastLogin(ctx, "alice", loginTime))

	user, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	assert.WithinDuration(t, loginTime, *user.LastLogin, time.Second)
}

func TestUserStorage_UpdateLastLogin_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.UpdateLastLogin(ctx, "nobody", time.Now())
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}
