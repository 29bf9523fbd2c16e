package service

import (
	"context"
	"testing"

	"ledrent/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceCreateAndAuthenticate(t *testing.T) {
	db, bus, logger := newServiceDB(t)
	svc := NewUserService(db, bus, 4, logger)
	ctx := context.Background()

	t.Run("ValidationErrors", func(t *testing.T) {
		var ve *ValidationError

		_, err := svc.CreateUser(ctx, "No Email", "", "password123", false, 0)
		assert.ErrorAs(t, err, &ve)

		_, err = svc.CreateUser(ctx, "Bad Email", "not-an-email", "password123", false, 0)
		assert.ErrorAs(t, err, &ve)

		_, err = svc.CreateUser(ctx, "Short", "short@example.com", "1234567", false, 0)
		assert.ErrorAs(t, err, &ve)
	})

	user, err := svc.CreateUser(ctx, "Admin", "Admin@Example.COM", "password123", true, 0)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email, "email is normalized")
	assert.NotEqual(t, "password123", user.PasswordHash)

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, "Copy", "admin@example.com", "password123", false, 0)
		assert.ErrorIs(t, err, database.ErrDuplicate)
	})

	t.Run("AuthenticateSuccess", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "ADMIN@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		stored, err := svc.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, stored.LastLoginAt.IsZero(), "last login is stamped")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "admin@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		// Ответ не раскрывает, существует ли аккаунт
		_, err := svc.Authenticate(ctx, "ghost@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestEnsureBootstrapUser(t *testing.T) {
	db, bus, logger := newServiceDB(t)
	svc := NewUserService(db, bus, 4, logger)
	ctx := context.Background()

	t.Run("EmptyCredentialsSkip", func(t *testing.T) {
		require.NoError(t, svc.EnsureBootstrapUser(ctx, "", ""))
		count, err := db.CountUsers(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("CreatesFirstAdmin", func(t *testing.T) {
		require.NoError(t, svc.EnsureBootstrapUser(ctx, "root@example.com", "supersecret"))

		user, err := db.GetUserByEmail(ctx, "root@example.com")
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
	})

	t.Run("NoopWhenUsersExist", func(t *testing.T) {
		require.NoError(t, svc.EnsureBootstrapUser(ctx, "second@example.com", "supersecret"))
		_, err := db.GetUserByEmail(ctx, "second@example.com")
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}
