// Package auth resolves request credentials to marketplace profiles.
//
// Two credentials are understood: the raw profile id (the profile_id header)
// and, when a secret is configured, an HS256 bearer token carrying the
// profile id. Tokens are verified here but issued elsewhere.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/repository"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownProfile     = errors.New("unknown profile")
)

type Claims struct {
	ProfileID int64 `json:"profile_id,omitempty"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Enabled() bool {
	return len(p.secret) > 0
}

// ParseProfileID verifies the token and returns the profile id from the
// profile_id claim, falling back to sub.
func (p *Parser) ParseProfileID(token string) (int64, error) {
	if !p.Enabled() {
		return 0, fmt.Errorf("%w: bearer tokens are not accepted", ErrInvalidCredentials)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidCredentials
	}

	if claims.ProfileID > 0 {
		return claims.ProfileID, nil
	}
	return parseProfileID(claims.Subject)
}

type ProfileLookup interface {
	GetProfile(ctx context.Context, id int64) (*model.Profile, error)
}

type Credentials struct {
	ProfileID   string
	BearerToken string
}

type Resolver struct {
	profiles ProfileLookup
	tokens   *Parser
}

func NewResolver(profiles ProfileLookup, tokens *Parser) *Resolver {
	return &Resolver{profiles: profiles, tokens: tokens}
}

// Resolve prefers the bearer token when one is present.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (*model.Profile, error) {
	var (
		id  int64
		err error
	)
	switch {
	case creds.BearerToken != "":
		id, err = r.tokens.ParseProfileID(creds.BearerToken)
	case creds.ProfileID != "":
		id, err = parseProfileID(creds.ProfileID)
	default:
		return nil, ErrMissingCredentials
	}
	if err != nil {
		return nil, err
	}

	profile, err := r.profiles.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownProfile
		}
		return nil, err
	}
	return profile, nil
}

func parseProfileID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed profile id", ErrInvalidCredentials)
	}
	return id, nil
}
