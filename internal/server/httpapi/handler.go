// Package httpapi exposes the portfolio services as a JSON HTTP API.
//
// Public routes serve published content and accept work requests. Routes
// under /api/admin require an access token, taken from the access cookie
// or an "Authorization: Bearer" header.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
	"github.com/google/uuid"
)

type AuthService interface {
	Login(ctx context.Context, email, password string, now time.Time) (auth.TokenPair, error)
	Refresh(refreshToken string, now time.Time) (auth.Token, error)
}

type ContentService interface {
	Create(ctx context.Context, in services.ContentInput, now time.Time) (*models.Content, error)
	Update(ctx context.Context, id string, in services.ContentInput, now time.Time) (*models.Content, error)
	Delete(ctx context.Context, id string) error
	GetBySlug(ctx context.Context, slug string) (*models.Content, error)
	List(ctx context.Context, limit, offset int) ([]*models.Content, error)
}

type RequestService interface {
	Submit(ctx context.Context, email, subject, description string, now time.Time) (*models.WorkRequest, error)
	Reply(ctx context.Context, id, text string, now time.Time) (*models.WorkRequest, error)
	List(ctx context.Context, status models.WorkRequestStatus) ([]*models.WorkRequest, error)
}

type Config struct {
	AccessCookieName  string
	RefreshCookieName string
	SecureCookies     bool
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Handler struct {
	cfg      Config
	auth     AuthService
	content  ContentService
	requests RequestService
	gate     *auth.Middleware
	metrics  *Metrics
	logger   logging.Logger
}

// NewHandler wires the services behind the session gate. metrics may be nil.
func NewHandler(cfg Config, a AuthService, c ContentService, rs RequestService, v auth.AccessVerifier, m *Metrics, logger logging.Logger) *Handler {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.AccessCookieName == "" {
		cfg.AccessCookieName = common.AccessTokenCookieName
	}
	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = common.RefreshTokenCookieName
	}

	h := &Handler{
		cfg:      cfg,
		auth:     a,
		content:  c,
		requests: rs,
		metrics:  m,
		logger:   logger.With("module", "http"),
	}
	h.gate = auth.NewMiddleware(v, cfg.AccessCookieName, cfg.Clock, h.reject)
	return h
}

// Routes returns the complete API, plus /metrics when metrics are enabled.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	h.handle(mux, "GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))

	h.handle(mux, "POST /api/auth/login", http.HandlerFunc(h.login))
	h.handle(mux, "POST /api/auth/refresh", http.HandlerFunc(h.refresh))
	h.handle(mux, "POST /api/auth/logout", http.HandlerFunc(h.logout))

	h.handle(mux, "GET /api/contents", http.HandlerFunc(h.listContents))
	h.handle(mux, "GET /api/contents/{slug}", http.HandlerFunc(h.getContent))
	h.handle(mux, "POST /api/requests", http.HandlerFunc(h.submitRequest))

	h.handle(mux, "POST /api/admin/contents", h.gate.Require(http.HandlerFunc(h.createContent)))
	h.handle(mux, "PUT /api/admin/contents/{id}", h.gate.Require(http.HandlerFunc(h.updateContent)))
	h.handle(mux, "DELETE /api/admin/contents/{id}", h.gate.Require(http.HandlerFunc(h.deleteContent)))
	h.handle(mux, "GET /api/admin/requests", h.gate.Require(http.HandlerFunc(h.listRequests)))
	h.handle(mux, "POST /api/admin/requests/{id}/reply", h.gate.Require(http.HandlerFunc(h.replyRequest)))

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	return correlate(mux)
}

// CorrelationHeader carries the ID that ties a request to its log lines.
const CorrelationHeader = "X-Request-ID"

// correlate reuses a well-formed incoming correlation ID or mints one, echoes
// it in the response and puts it in the request context for logging.
func correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if !validCorrelationID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithCorrelationID(r.Context(), id)))
	})
}

func validCorrelationID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

func (h *Handler) handle(mux *http.ServeMux, pattern string, next http.Handler) {
	mux.Handle(pattern, h.metrics.instrument(pattern, next))
}

// reject answers requests stopped by the session gate.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error) {
	reason := "invalid"
	var ue *common.UnauthorizedError
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		reason = "expired"
	case errors.As(err, &ue) && ue.Reason == common.ReasonNoCredential:
		reason = "no_credential"
	}

	h.metrics.rejected(reason)
	h.logger.Warn(r.Context(), "unauthorized request", "path", r.URL.Path, "reason", reason, "error", err)
	writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
}
