// Package mail renders and delivers the transactional messages the auth
// flows produce. Delivery is best effort: failures are logged, never
// surfaced to the request that triggered them.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*.txt
var templateFS embed.FS

const defaultLanguage = "en"

// Mailer renders localized templates and hands them to a Sender. It
// implements the delivery interface the auth service expects.
type Mailer struct {
	sender  Sender
	log     *slog.Logger
	baseURL string
	tmpl    map[string]*parsedTemplate // keyed "kind.lang"
	timeout time.Duration
}

type parsedTemplate struct {
	subject string
	body    *template.Template
}

func New(sender Sender, log *slog.Logger, baseURL string) (*Mailer, error) {
	m := &Mailer{
		sender:  sender,
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		tmpl:    make(map[string]*parsedTemplate),
		timeout: 10 * time.Second,
	}
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read mail templates: %w", err)
	}
	for _, e := range entries {
		raw, err := templateFS.ReadFile("templates/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read mail template %s: %w", e.Name(), err)
		}
		key := strings.TrimSuffix(e.Name(), ".txt")
		pt, err := parseTemplate(key, string(raw))
		if err != nil {
			return nil, err
		}
		m.tmpl[key] = pt
	}
	return m, nil
}

// parseTemplate splits the "Subject: ..." header line from the body and
// compiles the body as a text template.
func parseTemplate(name, raw string) (*parsedTemplate, error) {
	subject, body, ok := strings.Cut(raw, "\n")
	if !ok || !strings.HasPrefix(subject, "Subject: ") {
		return nil, fmt.Errorf("mail template %s: missing subject line", name)
	}
	t, err := template.New(name).Parse(strings.TrimLeft(body, "\n"))
	if err != nil {
		return nil, fmt.Errorf("parse mail template %s: %w", name, err)
	}
	return &parsedTemplate{
		subject: strings.TrimPrefix(strings.TrimSpace(subject), "Subject: "),
		body:    t,
	}, nil
}

func (m *Mailer) SignupLink(ctx context.Context, email, language, token string, expiresAt time.Time) {
	m.dispatch(email, "signup", language, map[string]any{
		"Link":      m.link("/signup/complete", token),
		"ExpiresAt": expiresAt.UTC().Format(time.RFC1123),
	})
}

func (m *Mailer) TFACode(ctx context.Context, email, language, code string) {
	m.dispatch(email, "tfa_code", language, map[string]any{"Code": code})
}

func (m *Mailer) PasswordResetLink(ctx context.Context, email, language, token string) {
	m.dispatch(email, "password_reset", language, map[string]any{
		"Link": m.link("/password/reset", token),
	})
}

func (m *Mailer) EmailChangeLink(ctx context.Context, email, language, token string) {
	m.dispatch(email, "email_change", language, map[string]any{
		"Link": m.link("/email/confirm", token),
	})
}

func (m *Mailer) link(path, token string) string {
	return m.baseURL + path + "?token=" + url.QueryEscape(token)
}

// dispatch renders and sends in the background. The caller's context is
// deliberately not used: the mail must not be cancelled when the HTTP
// request that triggered it completes.
func (m *Mailer) dispatch(to, kind, language string, data map[string]any) {
	pt, ok := m.tmpl[kind+"."+language]
	if !ok {
		pt = m.tmpl[kind+"."+defaultLanguage]
	}
	if pt == nil {
		m.log.Error("no mail template", "kind", kind, "language", language)
		return
	}
	var buf bytes.Buffer
	if err := pt.body.Execute(&buf, data); err != nil {
		m.log.Error("render mail", "kind", kind, "error", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := m.sender.Send(ctx, to, pt.subject, buf.String()); err != nil {
			m.log.Error("send mail", "kind", kind, "to", to, "error", err)
		}
	}()
}
