package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  avatar_url TEXT,
  role TEXT NOT NULL DEFAULT 'member',
  trust_penalty INTEGER NOT NULL DEFAULT 0,
  failed_payments INTEGER NOT NULL DEFAULT 0,
  blacklisted_until DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	return db
}

func TestProfileReflectsTrustState(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        uuid.NewString() + "@campus.edu",
		PasswordHash: "x",
		FirstName:    "Priya",
		LastName:     "Nair",
	})
	require.NoError(t, err)

	until := time.Now().UTC().Add(2 * time.Hour)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", created.ID).Updates(map[string]any{
		"trust_penalty":     30,
		"blacklisted_until": until,
	}).Error)

	profile, err := svc.Profile(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, profile.TrustScore)
	assert.True(t, profile.Blacklisted)
	require.NotNil(t, profile.BlacklistedUntil)

	_, err = svc.Profile(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateProfileAndAvatar(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        uuid.NewString() + "@campus.edu",
		PasswordHash: "x",
		FirstName:    "Arun",
		LastName:     "Menon",
	})
	require.NoError(t, err)

	first := "Arjun"
	phone := "9876543210"
	updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:    created.ID,
		FirstName: &first,
		Phone:     &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Arjun", updated.FirstName)
	assert.Equal(t, "Menon", updated.LastName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	empty := ""
	_, err = svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: created.ID, FirstName: &empty})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	withAvatar, err := svc.SetAvatar(context.Background(), created.ID, "/uploads/abc123.png")
	require.NoError(t, err)
	require.NotNil(t, withAvatar.AvatarURL)
	assert.Equal(t, "/uploads/abc123.png", *withAvatar.AvatarURL)
}
