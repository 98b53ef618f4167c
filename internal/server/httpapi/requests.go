package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

type submitRequest struct {
	Email       string `json:"email"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type replyRequest struct {
	Body string `json:"body"`
}

type workRequestResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RepliedAt   *time.Time `json:"replied_at,omitempty"`
}

func toWorkRequestResponse(wr *models.WorkRequest) workRequestResponse {
	return workRequestResponse{
		ID:          wr.ID,
		Email:       wr.RequesterEmail,
		Subject:     wr.SubjectTitle,
		Description: wr.Description,
		Status:      string(wr.Status),
		CreatedAt:   wr.CreatedAt,
		RepliedAt:   wr.RepliedAt,
	}
}

func (h *Handler) submitRequest(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	wr, err := h.requests.Submit(r.Context(), req.Email, req.Subject, req.Description, h.cfg.Clock())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkRequestResponse(wr))
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	items, err := h.requests.List(r.Context(), models.WorkRequestStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]workRequestResponse, 0, len(items))
	for _, wr := range items {
		out = append(out, toWorkRequestResponse(wr))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) replyRequest(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	id := r.PathValue("id")
	wr, err := h.requests.Reply(r.Context(), id, req.Body, h.cfg.Clock())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	principalID, _ := auth.PrincipalFromContext(r.Context())
	h.logger.Info(r.Context(), "request replied", "request_id", id, "principal_id", principalID)
	writeJSON(w, http.StatusOK, toWorkRequestResponse(wr))
}
