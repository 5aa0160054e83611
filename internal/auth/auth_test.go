package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	id := uuid.New()

	signed, err := tokens.Issue(id)
	require.NoError(t, err)

	got, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokens_Rejects(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	id := uuid.New()

	tokens := NewTokens(testSecret, time.Hour)
	tokens.now = func() time.Time { return issued }

	signed, err := tokens.Issue(id)
	require.NoError(t, err)

	t.Run("Expired", func(t *testing.T) {
		later := NewTokens(testSecret, time.Hour)
		later.now = func() time.Time { return issued.Add(2 * time.Hour) }

		_, err := later.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewTokens("another-secret-another-secret-xx", time.Hour)
		other.now = tokens.now

		_, err := other.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tokens.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("OtherAlgorithm", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		}

		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tokens.Parse(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoExpiry", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: id.String()}).
			SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tokens.Parse(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswords(t *testing.T) {
	p := NewPasswords(bcrypt.MinCost)

	hash, err := p.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, p.Compare(hash, "secret1"))
	assert.Error(t, p.Compare(hash, "secret2"))
}

func TestNewPasswords_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswords(1).cost)
	assert.Equal(t, 12, NewPasswords(12).cost)
}
