package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
)

const tokenIssuer = "projecthub"

type claims struct {
	Email string  `json:"email"`
	Name  string  `json:"name,omitempty"`
	Photo *string `json:"photo,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(identity *Identity) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: identity.Email,
		Name:  identity.DisplayName,
		Photo: identity.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", errs.NewInternalErrorWithCause("failed to sign session token", err)
	}
	return signed, nil
}

// Verify parses a token and returns the identity it carries.
func (t *TokenIssuer) Verify(raw string) (*Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.NewUnauthenticatedError("session expired")
		}
		return nil, errs.NewUnauthenticatedError("invalid session token")
	}

	uid, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, errs.NewUnauthenticatedError("invalid session subject")
	}
	identity := &Identity{UID: uid, Email: c.Email, DisplayName: c.Name, PhotoURL: c.Photo, TokenID: c.ID}
	if c.ExpiresAt != nil {
		identity.ExpiresAt = c.ExpiresAt.Time
	}
	return identity, nil
}
