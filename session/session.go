// Package session signs and verifies the HS256 bearer tokens accepted by the API.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeReauth marks an applicant token obtained by redeeming a re-auth link
const ScopeReauth = "reauth"

// Claims carried by every bearer token. Staff tokens only need the subject, roles are
// always reloaded from the users collection.
type Claims struct {
	Email      string   `json:"email,omitempty"`
	Name       string   `json:"name,omitempty"`
	NationalID string   `json:"nid,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	CaseID     string   `json:"caseId,omitempty"`
	Scope      string   `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Sign returns the compact HS256 serialization of claims
func Sign(secret []byte, claims Claims) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Issue signs a token for subject valid for ttl from now
func Issue(secret []byte, subject string, claims Claims, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := Sign(secret, claims)
	return token, expiresAt, err
}

// Parse verifies raw and returns its claims. Tokens without a subject or expiry are
// rejected.
func Parse(secret []byte, raw string) (*Claims, error) {
	return ParseAt(secret, raw, time.Now())
}

// ParseAt is Parse with expiry checked against now
func ParseAt(secret []byte, raw string, now time.Time) (*Claims, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid token: missing subject")
	}
	return claims, nil
}
