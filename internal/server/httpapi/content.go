package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
)

type contentRequest struct {
	Title  string   `json:"title"`
	Slug   *string  `json:"slug"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
	Body   string   `json:"body"`
}

type contentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toContentResponse(c *models.Content) contentResponse {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return contentResponse{
		ID:        c.ID,
		Title:     c.Title,
		Slug:      c.Slug,
		Author:    c.Author,
		Tags:      tags,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (req contentRequest) input() services.ContentInput {
	return services.ContentInput{Title: req.Title, Slug: req.Slug, Author: req.Author, Tags: req.Tags, Body: req.Body}
}

func (h *Handler) listContents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.content.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]contentResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toContentResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getContent(w http.ResponseWriter, r *http.Request) {
	c, err := h.content.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContentResponse(c))
}

func (h *Handler) createContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	c, err := h.content.Create(r.Context(), req.input(), h.cfg.Clock())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContentResponse(c))
}

func (h *Handler) updateContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	c, err := h.content.Update(r.Context(), r.PathValue("id"), req.input(), h.cfg.Clock())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContentResponse(c))
}

func (h *Handler) deleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.content.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt reads an optional non-negative integer query parameter; absent
// means zero.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.Join(common.ErrorValidation, errors.New(name+" must be a non-negative integer"))
	}
	return n, nil
}
