package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

type ctxKey string

const principalIDKey ctxKey = "principalID"

// WithPrincipal stores an authenticated principal ID in ctx.
func WithPrincipal(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, principalIDKey, principalID)
}

// PrincipalFromContext returns the principal stored by Require.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalIDKey).(string)
	return id, ok && id != ""
}

// AccessVerifier is satisfied by *Issuer.
type AccessVerifier interface {
	VerifyAccess(token string, now time.Time) (string, error)
}

// RejectFunc writes the response for a request that failed Authorize.
type RejectFunc func(w http.ResponseWriter, r *http.Request, err error)

type Middleware struct {
	verifier   AccessVerifier
	cookieName string
	clock      func() time.Time
	reject     RejectFunc
}

// NewMiddleware builds the session gate. A nil clock means time.Now; a nil
// reject writes a bare 401.
func NewMiddleware(v AccessVerifier, cookieName string, clock func() time.Time, reject RejectFunc) *Middleware {
	if clock == nil {
		clock = time.Now
	}
	if reject == nil {
		reject = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}
	return &Middleware{verifier: v, cookieName: cookieName, clock: clock, reject: reject}
}

// Authorize resolves the principal behind r at now. Failures are
// *common.UnauthorizedError with Reason set to common.ReasonNoCredential or
// common.ReasonInvalidCredential.
func (m *Middleware) Authorize(r *http.Request, now time.Time) (string, error) {
	cred := Extract(r, m.cookieName)
	if cred.Source == Absent {
		return "", &common.UnauthorizedError{Reason: common.ReasonNoCredential}
	}

	principalID, err := m.verifier.VerifyAccess(cred.Token, now)
	if err != nil {
		return "", &common.UnauthorizedError{Reason: common.ReasonInvalidCredential, Cause: err}
	}
	return principalID, nil
}

// Require lets only authorized requests reach next and puts the principal
// ID in the request context.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principalID, err := m.Authorize(r, m.clock())
		if err != nil {
			m.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principalID)))
	})
}
