// Package reauth issues one-time links that let an applicant come back to an incomplete
// case, and exchanges them for a short lived applicant bearer token.
package reauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/session"
)

// Service implements the workflow ReauthIssuer
type Service struct {
	Tokens       databases.ReauthTokenDatabase
	Secret       []byte
	TokenTTL     time.Duration
	SessionTTL   time.Duration
	PublicWebURL string
	Now          func() time.Time
}

// Grant is the result of redeeming a link
type Grant struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CaseID    string    `json:"caseId"`
}

// Issue stores a hashed token for the case applicant and returns the link to email
func (s *Service) Issue(ctx context.Context, c *models.Case) (string, error) {
	raw, err := newToken()
	if err != nil {
		return "", err
	}
	now := s.Now()
	t := &models.ReauthToken{
		CaseID:     c.ID.Hex(),
		Email:      c.Details.Applicant.Email,
		NationalID: c.Details.Applicant.NationalID,
		UserID:     c.Details.Applicant.UserID,
		TokenHash:  Hash(raw),
		ExpiresAt:  primitive.NewDateTimeFromTime(now.Add(s.TokenTTL)),
		CreatedAt:  primitive.NewDateTimeFromTime(now),
	}
	if err := s.Tokens.InsertOne(ctx, t); err != nil {
		return "", fmt.Errorf("failed to store reauth token: %w", err)
	}
	return strings.TrimRight(s.PublicWebURL, "/") + "/reauth?token=" + url.QueryEscape(raw), nil
}

// Redeem burns raw and returns an applicant token scoped to the token's case owner
func (s *Service) Redeem(ctx context.Context, raw string) (*Grant, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, lifecycle.InvalidInput("token is required")
	}
	now := s.Now()
	t, err := s.Tokens.FindActiveByHash(ctx, Hash(raw), now)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, lifecycle.NotFound("link is invalid or has expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reauth token: %w", err)
	}
	ok, err := s.Tokens.MarkUsed(ctx, t.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark reauth token used: %w", err)
	}
	if !ok {
		return nil, lifecycle.Conflict("link has already been used")
	}

	subject := t.UserID
	if subject == "" {
		subject = "reauth:" + t.ID.Hex()
	}
	token, expiresAt, err := session.Issue(s.Secret, subject, session.Claims{
		Email:      t.Email,
		NationalID: t.NationalID,
		Roles:      []string{models.RoleApplicant},
		CaseID:     t.CaseID,
		Scope:      session.ScopeReauth,
	}, now, s.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign applicant token: %w", err)
	}
	return &Grant{Token: token, ExpiresAt: expiresAt, CaseID: t.CaseID}, nil
}

// Cleanup deletes tokens that are past their expiry
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.Tokens.DeleteExpired(ctx, s.Now())
}

// Hash is the stored form of a raw token
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
