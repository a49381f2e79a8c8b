package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"listinghub/internal/models"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	user := models.User{ID: 42, Email: "owner@example.com", Role: models.UserRoleAdmin}

	token, err := GenerateAccessToken(testSecret, user, 7*24*time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, Identity{UserID: 42, Email: "owner@example.com", Role: models.UserRoleAdmin}, claims.Identity())
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, models.User{ID: 1, Role: models.UserRoleUser}, time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	token, err := GenerateAccessToken(testSecret, models.User{ID: 1, Role: models.UserRoleUser}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseAccessTokenRejectsIncompletePayload(t *testing.T) {
	claims := jwt.MapClaims{
		"email": "x@example.com",
		"role":  "user",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseAccessToken(token, testSecret)
	assert.ErrorIs(t, err, ErrMalformedClaims)
}

func TestParseAccessTokenRequiresExpiry(t *testing.T) {
	claims := jwt.MapClaims{"userId": 3, "email": "x@example.com", "role": "user"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseAccessToken(token, testSecret)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotContains(t, string(hash), "correct horse")

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")
}

func TestCanMutate(t *testing.T) {
	listing := models.Listing{ID: 1, CreatedBy: 10}

	cases := []struct {
		name  string
		actor Identity
		want  bool
	}{
		{"owner", Identity{UserID: 10, Role: models.UserRoleUser}, true},
		{"other user", Identity{UserID: 11, Role: models.UserRoleUser}, false},
		{"admin not owner", Identity{UserID: 99, Role: models.UserRoleAdmin}, true},
		{"unknown role", Identity{UserID: 11, Role: "moderator"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanMutate(tc.actor, listing))
		})
	}
}
