package persistence

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUserTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.UserModel{}))
	return db
}

func TestGormUserRepository(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	u, err := identity.NewUser("Asha Verma", "asha@example.com", "s3cret-pass", identity.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Asha Verma", found.Name)
		assert.Equal(t, identity.RoleAdmin, found.Role)
	})

	t.Run("finds by email case-insensitively", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "Asha@Example.COM")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)
		assert.True(t, found.CheckPassword("s3cret-pass"))
	})

	t.Run("missing user is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup, err := identity.NewUser("Other", "asha@example.com", "password-two", identity.RoleUser)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("exists by email", func(t *testing.T) {
		exists, err := repo.ExistsByEmail(ctx, "asha@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("lists all users", func(t *testing.T) {
		users, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}
