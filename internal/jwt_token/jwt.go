// Package jwttoken issues and validates the HS256 bearer tokens that identify
// the acting principal on every stewardship request.
package jwttoken

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/middleware/auth"
	"stewardship/pkg/requestcontext"
)

// ActorClaims are the claims carried by an actor token.
type ActorClaims struct {
	ActorID string `json:"actor_id"`
	jwt.RegisteredClaims
}

// Service signs and verifies actor tokens.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
}

func NewService(signingKey, issuer, audience string, tokenTTL time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// Issue signs a token for actorID valid for the configured TTL.
func (s *Service) Issue(ctx context.Context, actorID id.ActorID) (string, error) {
	if actorID.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "actor ID is required")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	now := requestcontext.Now(ctx)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ActorClaims{
		ActorID: actorID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        hex.EncodeToString(b),
		},
	})
	return token.SignedString(s.signingKey)
}

// Parse validates signature, algorithm, expiry, issuer and audience.
func (s *Service) Parse(tokenString string) (*ActorClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "empty token")
	}

	claims := new(ActorClaims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	if !token.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return claims, nil
}

// ValidateToken adapts Parse to the auth middleware.
func (s *Service) ValidateToken(tokenString string) (*auth.JWTClaims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.JWTClaims{ActorID: claims.ActorID, JTI: claims.ID}, nil
}
