package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrBadJob marks jobs that can never be delivered and must not be retried.
var ErrBadJob = errors.New("undeliverable email job")

// Renderer turns a template name and data into subject, text and html.
type Renderer func(name string, data any) (subject, text, html string, err error)

// Dispatch renders job when it names a template and hands it to s. Render
// and addressing failures wrap ErrBadJob; send failures are returned as is.
func Dispatch(ctx context.Context, s Sender, render Renderer, job EmailJob) error {
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrBadJob)
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		rs, rt, rh, err := render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrBadJob, job.Template, err)
		}
		if subject == "" {
			subject = rs
		}
		text, html = rt, rh
	}
	if text == "" && html == "" {
		return fmt.Errorf("%w: empty body", ErrBadJob)
	}
	return s.Send(ctx, job.To, subject, text, html)
}
