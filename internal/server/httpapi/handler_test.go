package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

// ---- fakes ----

type fakeAuth struct {
	pair       auth.TokenPair
	loginErr   error
	access     auth.Token
	refreshErr error
	gotRefresh string
}

func (f *fakeAuth) Login(context.Context, string, string, time.Time) (auth.TokenPair, error) {
	return f.pair, f.loginErr
}

func (f *fakeAuth) Refresh(token string, _ time.Time) (auth.Token, error) {
	f.gotRefresh = token
	return f.access, f.refreshErr
}

type fakeContent struct {
	item    *models.Content
	items   []*models.Content
	err     error
	gotIn   services.ContentInput
	gotID   string
	gotSlug string
}

func (f *fakeContent) Create(_ context.Context, in services.ContentInput, _ time.Time) (*models.Content, error) {
	f.gotIn = in
	return f.item, f.err
}

func (f *fakeContent) Update(_ context.Context, id string, in services.ContentInput, _ time.Time) (*models.Content, error) {
	f.gotID, f.gotIn = id, in
	return f.item, f.err
}

func (f *fakeContent) Delete(_ context.Context, id string) error {
	f.gotID = id
	return f.err
}

func (f *fakeContent) GetBySlug(_ context.Context, slug string) (*models.Content, error) {
	f.gotSlug = slug
	return f.item, f.err
}

func (f *fakeContent) List(context.Context, int, int) ([]*models.Content, error) {
	return f.items, f.err
}

type fakeRequests struct {
	item      *models.WorkRequest
	items     []*models.WorkRequest
	err       error
	gotStatus models.WorkRequestStatus
}

func (f *fakeRequests) Submit(context.Context, string, string, string, time.Time) (*models.WorkRequest, error) {
	return f.item, f.err
}

func (f *fakeRequests) Reply(context.Context, string, string, time.Time) (*models.WorkRequest, error) {
	return f.item, f.err
}

func (f *fakeRequests) List(_ context.Context, status models.WorkRequestStatus) ([]*models.WorkRequest, error) {
	f.gotStatus = status
	return f.items, f.err
}

// ---- helpers ----

type fixture struct {
	auth     *fakeAuth
	content  *fakeContent
	requests *fakeRequests
	issuer   *auth.Issuer
	metrics  *Metrics
	handler  http.Handler
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)

	f := &fixture{
		auth:     &fakeAuth{},
		content:  &fakeContent{},
		requests: &fakeRequests{},
		issuer:   issuer,
		metrics:  NewMetrics(),
		now:      t0,
	}
	cfg := Config{SecureCookies: true, Clock: func() time.Time { return f.now }}
	f.handler = NewHandler(cfg, f.auth, f.content, f.requests, issuer, f.metrics, logging.Nop{}).Routes()
	return f
}

func (f *fixture) do(method, path, body string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) accessToken(t *testing.T) string {
	t.Helper()
	pair, err := f.issuer.IssuePair("principal-1", t0)
	require.NoError(t, err)
	return pair.Access.Value
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error.Code
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ---- tests ----

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{common.ErrEmptyTitle, http.StatusBadRequest},
		{common.ErrInvalidCredentials, http.StatusUnauthorized},
		{common.ErrTooManyAttempts, http.StatusTooManyRequests},
		{fmt.Errorf("store: %w", common.ErrorNotFound), http.StatusNotFound},
		{common.ErrSlugConflict, http.StatusConflict},
		{common.ErrDuplicatePendingRequest, http.StatusConflict},
		{common.Upstream("notify", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{common.Upstream("notify", errors.New("relay denied")), http.StatusBadGateway},
		{&common.PostNotifyPersistError{RequestID: "r1", Cause: common.ErrAlreadyReplied}, http.StatusBadGateway},
		{common.ErrSigning, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			code, _ := status(tt.err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestLogin_SetsCookies(t *testing.T) {
	f := newFixture(t)
	f.auth.pair = auth.TokenPair{
		Access:  auth.Token{Value: "acc", ExpiresAt: t0.Add(15 * time.Minute)},
		Refresh: auth.Token{Value: "ref", ExpiresAt: t0.Add(24 * time.Hour)},
	}

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"owner@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for name, value := range map[string]string{common.AccessTokenCookieName: "acc", common.RefreshTokenCookieName: "ref"} {
		c := cookieByName(rec, name)
		require.NotNil(t, c, name)
		assert.Equal(t, value, c.Value)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	}

	var body sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "acc", body.AccessToken)
	assert.Equal(t, "ref", body.RefreshToken)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.logins.WithLabelValues("success")))
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		code    int
		outcome string
	}{
		{name: "bad credentials", body: `{"email":"a@b.c","password":"x"}`, err: common.ErrInvalidCredentials, code: http.StatusUnauthorized, outcome: "invalid"},
		{name: "locked", body: `{"email":"a@b.c","password":"x"}`, err: common.ErrTooManyAttempts, code: http.StatusTooManyRequests, outcome: "locked"},
		{name: "store down", body: `{"email":"a@b.c","password":"x"}`, err: common.Upstream("store", errors.New("down")), code: http.StatusBadGateway, outcome: "error"},
		{name: "malformed body", body: `{"email":`, code: http.StatusBadRequest},
		{name: "unknown field", body: `{"user":"a"}`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.auth.loginErr = tt.err

			rec := f.do(http.MethodPost, "/api/auth/login", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Nil(t, cookieByName(rec, common.AccessTokenCookieName))
			if tt.outcome != "" {
				assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.logins.WithLabelValues(tt.outcome)))
			}
		})
	}
}

func TestLogin_UnauthorizedMessageIsGeneric(t *testing.T) {
	f := newFixture(t)
	f.auth.loginErr = common.ErrInvalidCredentials

	rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"a@b.c","password":"x"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRefresh(t *testing.T) {
	t.Run("from cookie", func(t *testing.T) {
		f := newFixture(t)
		f.auth.access = auth.Token{Value: "new-access", ExpiresAt: t0.Add(15 * time.Minute)}

		rec := f.do(http.MethodPost, "/api/auth/refresh", "", withCookie(common.RefreshTokenCookieName, "ref"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ref", f.auth.gotRefresh)
		assert.Equal(t, "new-access", cookieByName(rec, common.AccessTokenCookieName).Value)
		assert.Nil(t, cookieByName(rec, common.RefreshTokenCookieName), "refresh token is not rotated")
	})

	t.Run("from body", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/auth/refresh", `{"refresh_token":"ref-body"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ref-body", f.auth.gotRefresh)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/auth/refresh", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, f.auth.gotRefresh)
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		f.auth.refreshErr = common.ErrTokenExpired
		rec := f.do(http.MethodPost, "/api/auth/refresh", "", withCookie(common.RefreshTokenCookieName, "old"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, cookieByName(rec, common.AccessTokenCookieName))
	})
}

func TestLogout_ExpiresCookies(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	for _, name := range []string{common.AccessTokenCookieName, common.RefreshTokenCookieName} {
		c := cookieByName(rec, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}

func TestAdminRoutes_RequireAccessToken(t *testing.T) {
	f := newFixture(t)
	f.content.item = &models.Content{ID: "c1", Title: "Hello", Slug: "hello"}
	token := f.accessToken(t)

	rec := f.do(http.MethodPost, "/api/admin/contents", `{"title":"Hello"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.authFailures.WithLabelValues("no_credential")))

	rec = f.do(http.MethodPost, "/api/admin/contents", `{"title":"Hello"}`, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.authFailures.WithLabelValues("invalid")))

	rec = f.do(http.MethodPost, "/api/admin/contents", `{"title":"Hello"}`, bearer(token))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Hello", f.content.gotIn.Title)
	assert.Nil(t, f.content.gotIn.Slug)

	rec = f.do(http.MethodPost, "/api/admin/contents", `{"title":"Hello","slug":"custom"}`,
		withCookie(common.AccessTokenCookieName, token))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, f.content.gotIn.Slug)
	assert.Equal(t, "custom", *f.content.gotIn.Slug)

	f.now = t0.Add(16 * time.Minute)
	rec = f.do(http.MethodPost, "/api/admin/contents", `{"title":"Hello"}`, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.authFailures.WithLabelValues("expired")))
}

func TestAdminRoutes_RefreshTokenIsNotAccess(t *testing.T) {
	f := newFixture(t)
	pair, err := f.issuer.IssuePair("principal-1", t0)
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/admin/requests", "", bearer(pair.Refresh.Value))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContentRoutes(t *testing.T) {
	f := newFixture(t)
	token := f.accessToken(t)

	f.content.item = &models.Content{ID: "c1", Title: "Hello", Slug: "hello-world", CreatedAt: t0, UpdatedAt: t0}
	rec := f.do(http.MethodGet, "/api/contents/hello-world", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello-world", f.content.gotSlug)

	var got contentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, []string{}, got.Tags)

	rec = f.do(http.MethodPut, "/api/admin/contents/c1", `{"title":"Hello again"}`, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", f.content.gotID)

	rec = f.do(http.MethodDelete, "/api/admin/contents/c9", "", bearer(token))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "c9", f.content.gotID)

	f.content.err = fmt.Errorf("store: %w", common.ErrorNotFound)
	rec = f.do(http.MethodGet, "/api/contents/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	f.content.err = common.ErrSlugConflict
	rec = f.do(http.MethodPost, "/api/admin/contents", `{"title":"Hello","slug":"taken"}`, bearer(token))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListContents_Query(t *testing.T) {
	f := newFixture(t)
	f.content.items = []*models.Content{{ID: "a"}, {ID: "b"}}

	rec := f.do(http.MethodGet, "/api/contents?limit=2&offset=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []contentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	rec = f.do(http.MethodGet, "/api/contents?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/contents?offset=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestRoutes(t *testing.T) {
	f := newFixture(t)
	token := f.accessToken(t)
	replied := t0.Add(time.Hour)

	f.requests.item = &models.WorkRequest{ID: "r1", RequesterEmail: "a@example.com", SubjectTitle: "Site", Status: models.StatusPending, CreatedAt: t0}
	rec := f.do(http.MethodPost, "/api/requests", `{"email":"a@example.com","subject":"Site"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	f.requests.err = common.ErrDuplicatePendingRequest
	rec = f.do(http.MethodPost, "/api/requests", `{"email":"a@example.com","subject":"Site"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.requests.err = nil
	f.requests.items = []*models.WorkRequest{f.requests.item}
	rec = f.do(http.MethodGet, "/api/admin/requests?status=pending", "", bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusPending, f.requests.gotStatus)

	f.requests.item = &models.WorkRequest{ID: "r1", Status: models.StatusReplied, RepliedAt: &replied}
	rec = f.do(http.MethodPost, "/api/admin/requests/r1/reply", `{"body":"thanks"}`, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	var got workRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "replied", got.Status)
	require.NotNil(t, got.RepliedAt)

	f.requests.err = &common.PostNotifyPersistError{RequestID: "r1", Cause: common.ErrAlreadyReplied}
	rec = f.do(http.MethodPost, "/api/admin/requests/r1/reply", `{"body":"thanks"}`, bearer(token))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "reply_not_recorded", errorCode(t, rec))

	f.requests.err = common.Upstream("notify", context.DeadlineExceeded)
	rec = f.do(http.MethodPost, "/api/admin/requests/r1/reply", `{"body":"thanks"}`, bearer(token))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestServerErrorsHideDetails(t *testing.T) {
	f := newFixture(t)
	f.content.err = common.Upstream("store", errors.New("db error: dial tcp 10.0.0.5:5432"))

	rec := f.do(http.MethodGet, "/api/contents/x", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodGet, "/healthz", "")
	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="GET /healthz"`)
}

func TestRoutes_WithoutMetrics(t *testing.T) {
	h := NewHandler(Config{}, &fakeAuth{}, &fakeContent{}, &fakeRequests{}, nil, nil, logging.Nop{}).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCorrelationID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "")
	minted := rec.Header().Get(CorrelationHeader)
	assert.Len(t, minted, 36)

	rec = f.do(http.MethodGet, "/healthz", "", func(r *http.Request) { r.Header.Set(CorrelationHeader, "edge-123") })
	assert.Equal(t, "edge-123", rec.Header().Get(CorrelationHeader))

	rec = f.do(http.MethodGet, "/healthz", "", func(r *http.Request) { r.Header.Set(CorrelationHeader, "bad id\n") })
	assert.NotEqual(t, "bad id\n", rec.Header().Get(CorrelationHeader))
	assert.Len(t, rec.Header().Get(CorrelationHeader), 36)
}
