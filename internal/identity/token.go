package identity

import (
	"errors"
	"fmt"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates bearer tokens issued by the external identity
// provider. The subject claim carries the directory user id.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *TokenVerifier) Verify(tokenString string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", apperr.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: invalid token", apperr.ErrUnauthenticated)
	}

	userID, err := uuid.FromString(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %w", apperr.ErrUnauthenticated, errors.New("subject is not a user id"))
	}

	return userID, nil
}
