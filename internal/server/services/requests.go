package services

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/notify"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
)

type RequestServiceConfig struct {
	// AdminEmail receives a copy of every new request when set.
	AdminEmail    string
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
}

// RequestService runs the work request lifecycle: at most one pending
// request per (requester, subject), and pending -> replied exactly once.
type RequestService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	notifier notify.Notifier
	cfg      RequestServiceConfig
	logger   logging.Logger
}

func NewRequestService(db *sql.DB, m repomanager.RepositoryManager, n notify.Notifier, cfg RequestServiceConfig, logger logging.Logger) *RequestService {
	return &RequestService{db: db, repos: m, notifier: n, cfg: cfg, logger: logger.With("module", "requests")}
}

// Submit records a new pending request and acknowledges it by mail. The
// acknowledgement is best-effort: a delivery failure is logged and the
// request still counts as submitted.
func (s *RequestService) Submit(ctx context.Context, email, subject, description string, now time.Time) (*models.WorkRequest, error) {
	email, err := normalizeAddress(email)
	if err != nil {
		return nil, err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, common.ErrEmptySubject
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	repo := s.repos.WorkRequests(s.db)

	_, err = repo.FindPending(storeCtx, email, subject)
	switch {
	case err == nil:
		return nil, common.ErrDuplicatePendingRequest
	case !errors.Is(err, common.ErrorNotFound):
		return nil, storeErr(err)
	}

	created, err := repo.Create(storeCtx, &models.WorkRequest{
		RequesterEmail: email,
		SubjectTitle:   subject,
		Description:    strings.TrimSpace(description),
		Status:         models.StatusPending,
		CreatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, common.ErrUniqueViolation) {
			return nil, common.ErrDuplicatePendingRequest
		}
		return nil, storeErr(err)
	}

	s.acknowledge(context.WithoutCancel(ctx), created)

	return created, nil
}

func (s *RequestService) acknowledge(ctx context.Context, w *models.WorkRequest) {
	send := func(to string, build func(*models.WorkRequest) (string, string, error)) {
		subject, body, err := build(w)
		if err == nil {
			ctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
			err = s.notifier.Send(ctx, to, subject, body)
			cancel()
		}
		if err != nil {
			s.logger.Warn(ctx, "acknowledgement not delivered", "request_id", w.ID, "to", to, "error", err)
		}
	}

	send(w.RequesterEmail, notify.Acknowledgement)
	if s.cfg.AdminEmail != "" {
		send(s.cfg.AdminEmail, notify.AdminCopy)
	}
}

// Reply mails text to the requester and then marks the request replied.
// Nothing is recorded when delivery fails. When delivery succeeds but the
// status change does not, the result is *common.PostNotifyPersistError.
func (s *RequestService) Reply(ctx context.Context, id, text string, now time.Time) (*models.WorkRequest, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.ErrEmptyReply
	}

	repo := s.repos.WorkRequests(s.db)

	loadCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	w, err := repo.GetByID(loadCtx, id)
	cancel()
	if err != nil {
		return nil, storeErr(err)
	}
	if w.Status == models.StatusReplied {
		return nil, common.ErrAlreadyReplied
	}

	subject, body, err := notify.Reply(w, text)
	if err != nil {
		return nil, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	err = s.notifier.Send(sendCtx, w.RequesterEmail, subject, body)
	cancel()
	if err != nil {
		return nil, common.Upstream("notify", err)
	}

	// The mail is out; finish the transition even if the caller goes away.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	defer cancel()

	if err := repo.MarkReplied(persistCtx, w.ID, now); err != nil {
		cause := err
		if !errors.Is(err, common.ErrAlreadyReplied) {
			cause = storeErr(err)
		}
		return nil, &common.PostNotifyPersistError{RequestID: w.ID, Cause: cause}
	}

	repliedAt := now
	w.Status = models.StatusReplied
	w.RepliedAt = &repliedAt
	return w, nil
}

// List returns requests newest first, optionally filtered by status.
func (s *RequestService) List(ctx context.Context, status models.WorkRequestStatus) ([]*models.WorkRequest, error) {
	switch status {
	case "", models.StatusPending, models.StatusReplied:
	default:
		return nil, common.ErrorValidation
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	items, err := s.repos.WorkRequests(s.db).List(ctx, status)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// normalizeAddress accepts a bare address only, e.g. "me@example.com".
func normalizeAddress(s string) (string, error) {
	s = common.NormalizeEmail(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", common.ErrInvalidEmail
	}
	return s, nil
}
