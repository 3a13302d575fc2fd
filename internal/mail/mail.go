// AngelaMos | 2026
// mail.go

package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates
var templateFS embed.FS

const (
	SubjectWelcome       = "Welcome to blog corner"
	SubjectPasswordReset = "Your password reset token (valid for only 10mins)"
)

type Recipient struct {
	Name  string
	Email string
}

// FirstName is the first word of the recipient's name.
func (r Recipient) FirstName() string {
	if fields := strings.Fields(r.Name); len(fields) > 0 {
		return fields[0]
	}
	return r.Name
}

// Sender delivers account notifications.
type Sender interface {
	SendWelcome(ctx context.Context, to Recipient, url string) error
	SendPasswordReset(ctx context.Context, to Recipient, url string) error
}

type kind string

const (
	kindWelcome       kind = "welcome"
	kindPasswordReset kind = "password_reset"
)

type message struct {
	Subject   string
	FirstName string
	URL       string
}

type rendered struct {
	subject string
	html    string
	text    string
}

type renderer struct {
	html map[kind]*htmltemplate.Template
	text map[kind]*texttemplate.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{
		html: make(map[kind]*htmltemplate.Template),
		text: make(map[kind]*texttemplate.Template),
	}

	for _, k := range []kind{kindWelcome, kindPasswordReset} {
		h, err := htmltemplate.ParseFS(
			templateFS,
			"templates/base.html",
			"templates/"+string(k)+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s html template: %w", k, err)
		}

		t, err := texttemplate.ParseFS(templateFS, "templates/"+string(k)+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse %s text template: %w", k, err)
		}

		r.html[k] = h
		r.text[k] = t
	}

	return r, nil
}

func (r *renderer) render(k kind, subject string, to Recipient, url string) (*rendered, error) {
	data := message{Subject: subject, FirstName: to.FirstName(), URL: url}

	var html bytes.Buffer
	if err := r.html[k].ExecuteTemplate(&html, "base.html", data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", k, err)
	}

	var text bytes.Buffer
	if err := r.text[k].Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", k, err)
	}

	return &rendered{subject: subject, html: html.String(), text: text.String()}, nil
}
