// Package notify delivers outbound mail for work requests.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"

	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
)

// Notifier sends a plain-text message to one recipient. A nil error means
// the message was accepted for delivery.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Acknowledgement is the message sent to a requester after submission.
func Acknowledgement(w *models.WorkRequest) (subject, body string, err error) {
	body, err = render("acknowledgement.tmpl", w)
	return "We received your request: " + w.SubjectTitle, body, err
}

// AdminCopy is the message sent to the site owner for a new request.
func AdminCopy(w *models.WorkRequest) (subject, body string, err error) {
	body, err = render("admin_copy.tmpl", w)
	return "New work request: " + w.SubjectTitle, body, err
}

// Reply wraps the owner's answer to a request.
func Reply(w *models.WorkRequest, text string) (subject, body string, err error) {
	body, err = render("reply.tmpl", struct {
		Request *models.WorkRequest
		Body    string
	}{Request: w, Body: text})
	return "Re: " + w.SubjectTitle, body, err
}

// LogNotifier writes messages to the log instead of sending them. It is
// used when no SMTP server is configured.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Info(ctx, "mail not sent, smtp disabled", "to", to, "subject", subject, "bytes", len(body))
	return nil
}
