package serverutils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestBearerSubject(t *testing.T) {
	const secret = "s3cret"
	exp := time.Now().Add(time.Hour).Unix()

	sub, err := BearerSubject("Bearer "+signed(t, secret, jwt.MapClaims{"sub": "feed-partner", "exp": exp}), secret)
	require.NoError(t, err)
	assert.Equal(t, "feed-partner", sub)

	sub, err = BearerSubject("Bearer "+signed(t, secret, jwt.MapClaims{"user_id": "u-1", "exp": exp}), secret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", sub)

	_, err = BearerSubject("", secret)
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = BearerSubject("Basic abc", secret)
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = BearerSubject("Bearer "+signed(t, "other", jwt.MapClaims{"sub": "x", "exp": exp}), secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := time.Now().Add(-time.Hour).Unix()
	_, err = BearerSubject("Bearer "+signed(t, secret, jwt.MapClaims{"sub": "x", "exp": expired}), secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
