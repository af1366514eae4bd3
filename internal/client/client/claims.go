package client

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the subset of a GoTrue access token the client reads.
type accessClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// identityFromToken decodes the identity and expiry carried by an access
// token. The signature is not checked: the client does not hold the signing
// secret, and the token is only ever sent back to the service that issued it.
func identityFromToken(token string) (models.UserIdentity, time.Time, error) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.UserIdentity{}, time.Time{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return models.UserIdentity{}, time.Time{}, fmt.Errorf("%w: missing sub", common.ErrInvalidToken)
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time.UTC()
	}

	return models.UserIdentity{
		ID:       claims.Subject,
		Email:    claims.Email,
		Metadata: claims.UserMetadata,
	}, exp, nil
}
