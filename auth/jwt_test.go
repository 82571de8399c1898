package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logistiko-backend/models"
)

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{
		ID:    uuid.New(),
		Email: "maria@example.gr",
		Role:  models.RoleAccountant,
	}
	secret := []byte("test-secret")

	token, err := GenerateToken(user, secret, time.Hour)
	require.NoError(t, err)

	userID, role, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, models.RoleAccountant, role)
}

func TestParseTokenWrongSecret(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	token, err := GenerateToken(user, []byte("secret-a"), time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken(token, []byte("secret-b"))
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: models.RoleViewer}
	secret := []byte("test-secret")

	token, err := GenerateToken(user, secret, -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseToken(token, secret)
	assert.Error(t, err)
}
