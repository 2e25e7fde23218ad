package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/marketplace-payments/internal/auth"
	"github.com/nurpe/marketplace-payments/internal/model"
)

const (
	ProfileIDHeader = "profile_id"
	principalKey    = "principal"
	profileKey      = "profile"
)

type ProfileResolver interface {
	Resolve(ctx context.Context, creds auth.Credentials) (*model.Profile, error)
}

// Auth resolves the caller's profile and aborts with 401 when it cannot.
func Auth(resolver ProfileResolver, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := auth.Credentials{ProfileID: c.GetHeader(ProfileIDHeader)}
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
				return
			}
			creds.BearerToken = strings.TrimSpace(parts[1])
		}

		profile, err := resolver.Resolve(c.Request.Context(), creds)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingCredentials),
				errors.Is(err, auth.ErrInvalidCredentials),
				errors.Is(err, auth.ErrUnknownProfile):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			default:
				log.Error().Err(err).Str("request_id", RequestIDFrom(c)).Msg("resolve profile failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		c.Set(principalKey, model.NewPrincipal(profile))
		c.Set(profileKey, profile)
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	return principal, ok
}

// CurrentProfile is the profile as loaded during authentication.
func CurrentProfile(c *gin.Context) (*model.Profile, bool) {
	value, ok := c.Get(profileKey)
	if !ok {
		return nil, false
	}
	profile, ok := value.(*model.Profile)
	return profile, ok
}
