package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitzero"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password, h.cfg.Clock())
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTooManyAttempts):
			h.metrics.login("locked")
		case errors.Is(err, common.ErrorUnauthorized):
			h.metrics.login("invalid")
		default:
			h.metrics.login("error")
		}
		h.writeError(w, r, err)
		return
	}
	h.metrics.login("success")

	h.setCookie(w, h.cfg.AccessCookieName, pair.Access.Value, pair.Access.ExpiresAt)
	h.setCookie(w, h.cfg.RefreshCookieName, pair.Refresh.Value, pair.Refresh.ExpiresAt)

	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:      pair.Access.Value,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshToken:     pair.Refresh.Value,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	})
}

// refresh takes the refresh token from its cookie or, failing that, from
// the JSON body.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(h.cfg.RefreshCookieName); err == nil {
		token = strings.TrimSpace(c.Value)
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}
	if token == "" {
		writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	access, err := h.auth.Refresh(token, h.cfg.Clock())
	if err != nil {
		h.logger.Warn(r.Context(), "refresh rejected", "error", err)
		h.writeError(w, r, err)
		return
	}

	h.setCookie(w, h.cfg.AccessCookieName, access.Value, access.ExpiresAt)
	writeJSON(w, http.StatusOK, sessionResponse{AccessToken: access.Value, AccessExpiresAt: access.ExpiresAt})
}

// logout only clears the cookies. Tokens already handed out stay valid
// until they expire.
func (h *Handler) logout(w http.ResponseWriter, _ *http.Request) {
	h.expireCookie(w, h.cfg.AccessCookieName)
	h.expireCookie(w, h.cfg.RefreshCookieName)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) expireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
