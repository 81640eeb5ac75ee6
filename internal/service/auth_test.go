package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/linkstash/internal/apperr"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewAuthService("secret", time.Hour)

	token, err := svc.GenerateJWT("alice")
	require.NoError(t, err)

	scope, err := svc.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", scope.OwnerID())
}

func TestVerifyJWTRejects(t *testing.T) {
	svc := NewAuthService("secret", time.Hour)
	token, err := svc.GenerateJWT("alice")
	require.NoError(t, err)

	_, err = NewAuthService("other", time.Hour).VerifyJWT(token)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.VerifyJWT("garbage")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	expired := NewAuthService("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.GenerateJWT("alice")
	require.NoError(t, err)
	_, err = svc.VerifyJWT(old)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGenerateJWTValidatesOwner(t *testing.T) {
	_, err := NewAuthService("secret", time.Hour).GenerateJWT("../bob")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
