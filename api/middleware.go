package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
	"github.com/linesmerrill/violation-case-api/session"
)

const (
	extScope      = "scope"
	extNationalID = "nid"
	extName       = "name"
	extCaseID     = "caseId"
)

var errInactive = errors.New("user is inactive")

// Authenticator verifies bearer tokens and resolves the calling actor
type Authenticator struct {
	Users  databases.UserDatabase
	Secret []byte

	authenticator auth.Authenticator
}

// NewAuthenticator sets up go-guardian with a cached bearer strategy. Verified tokens
// are cached for cacheTTL; roles are still reloaded on every request.
func NewAuthenticator(users databases.UserDatabase, secret []byte, cacheTTL time.Duration) *Authenticator {
	a := &Authenticator{Users: users, Secret: secret}
	cache := store.NewFIFO(context.Background(), cacheTTL)
	a.authenticator = auth.New()
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, bearer.New(a.verifyToken, cache))
	return a
}

func (a *Authenticator) verifyToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	claims, err := session.Parse(a.Secret, token)
	if err != nil {
		return nil, err
	}
	ext := map[string][]string{
		extScope:      {claims.Scope},
		extNationalID: {claims.NationalID},
		extName:       {claims.Name},
		extCaseID:     {claims.CaseID},
	}
	return auth.NewDefaultUser(claims.Email, claims.Subject, claims.Roles, ext), nil
}

// Middleware rejects unauthenticated requests and stores the actor in the context.
// Browsers cannot set headers on websocket upgrades, so a token query parameter is
// accepted when the Authorization header is absent.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") == "" {
			if token := r.URL.Query().Get("token"); token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}

		info, err := a.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Warnw("unauthorized", "url", r.URL.Path, "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		actor, err := a.resolve(r.Context(), info)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			zap.S().Warnw("token subject not found", "userID", info.ID())
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		case errors.Is(err, errInactive):
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "account is inactive"}`))
			return
		case err != nil:
			zap.S().Errorw("failed to resolve actor", "userID", info.ID(), "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "failed to resolve user"}`))
			return
		}
		zap.S().Debugw("authenticated", "userID", actor.ID, "roles", actor.Roles)
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// resolve builds the actor. Re-auth tokens carry their own applicant identity and are
// confined to the case of their link, every other token is resolved against the live
// users collection.
func (a *Authenticator) resolve(ctx context.Context, info auth.Info) (policy.Actor, error) {
	ext := info.Extensions()
	if first(ext[extScope]) == session.ScopeReauth {
		return policy.Actor{
			ID:         info.ID(),
			Email:      info.UserName(),
			NationalID: first(ext[extNationalID]),
			Roles:      []string{models.RoleApplicant},
			CaseID:     first(ext[extCaseID]),
		}, nil
	}

	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()
	u, err := a.Users.FindByID(ctx, info.ID())
	if err != nil {
		return policy.Actor{}, err
	}
	if !u.Details.Active {
		return policy.Actor{}, errInactive
	}
	return policy.Actor{
		ID:         u.ID,
		Name:       u.Details.Name,
		Email:      u.Details.Email,
		NationalID: u.Details.NationalID,
		District:   u.Details.District,
		Roles:      u.Details.Roles,
	}, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
