package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/repository"
)

type stubProfiles map[int64]*model.Profile

func (s stubProfiles) GetProfile(_ context.Context, id int64) (*model.Profile, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParser_ParseProfileID(t *testing.T) {
	parser := NewParser("secret")

	t.Run("profile_id claim", func(t *testing.T) {
		token := signToken(t, "secret", jwt.SigningMethodHS256, Claims{ProfileID: 10})
		id, err := parser.ParseProfileID(token)
		require.NoError(t, err)
		assert.Equal(t, int64(10), id)
	})

	t.Run("subject claim", func(t *testing.T) {
		token := signToken(t, "secret", jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "11"}})
		id, err := parser.ParseProfileID(token)
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other", jwt.SigningMethodHS256, Claims{ProfileID: 10})
		_, err := parser.ParseProfileID(token)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token := signToken(t, "secret", jwt.SigningMethodHS512, Claims{ProfileID: 10})
		_, err := parser.ParseProfileID(token)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, "secret", jwt.SigningMethodHS256, Claims{
			ProfileID:        10,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		})
		_, err := parser.ParseProfileID(token)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("disabled without secret", func(t *testing.T) {
		_, err := NewParser("").ParseProfileID("anything")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestResolver_Resolve(t *testing.T) {
	profiles := stubProfiles{10: {ID: 10, Type: model.ProfileTypeClient}}
	resolver := NewResolver(profiles, NewParser("secret"))
	ctx := context.Background()

	profile, err := resolver.Resolve(ctx, Credentials{ProfileID: " 10 "})
	require.NoError(t, err)
	assert.Equal(t, int64(10), profile.ID)

	token := signToken(t, "secret", jwt.SigningMethodHS256, Claims{ProfileID: 10})
	profile, err = resolver.Resolve(ctx, Credentials{ProfileID: "99", BearerToken: token})
	require.NoError(t, err)
	assert.Equal(t, int64(10), profile.ID, "bearer token wins over header")

	_, err = resolver.Resolve(ctx, Credentials{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	for _, raw := range []string{"abc", "0", "-3"} {
		_, err = resolver.Resolve(ctx, Credentials{ProfileID: raw})
		assert.ErrorIs(t, err, ErrInvalidCredentials, raw)
	}

	_, err = resolver.Resolve(ctx, Credentials{ProfileID: "42"})
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

type failingProfiles struct{}

func (failingProfiles) GetProfile(context.Context, int64) (*model.Profile, error) {
	return nil, errors.New("db down")
}

func TestResolver_LookupFailure(t *testing.T) {
	_, err := NewResolver(failingProfiles{}, NewParser("")).Resolve(context.Background(), Credentials{ProfileID: "1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownProfile)
}
