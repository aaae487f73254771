package mailer

import (
	"bytes"
	"context"
	"errors"
	texttemplate "text/template"
)

// Message describes a templated email.
type Message struct {
	Data     any
	Tags     map[string]string
	To       string
	Template string
	// Subject overrides the template's front matter subject.
	Subject string
	ReplyTo string
}

type Mailer struct {
	sender   Sender
	renderer *Renderer
	cfg      Config
}

func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	return &Mailer{sender: sender, renderer: renderer, cfg: cfg}
}

// Send renders msg and delivers it. The subject comes from msg.Subject, then
// the template's "subject" front matter, then the configured fallback; it is
// expanded as a template with msg.Data.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	out, err := m.renderer.Render(m.cfg.Layout, msg.Template, msg.Data)
	if err != nil {
		return err
	}

	subject := msg.Subject
	if subject == "" {
		subject, _ = out.Metadata["subject"].(string)
	}
	if subject == "" {
		subject = m.cfg.FallbackSubject
	}
	subject, err = expand(subject, msg.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = m.cfg.ReplyTo
	}

	return m.deliver(ctx, &Email{
		To:      []string{msg.To},
		From:    m.cfg.From,
		ReplyTo: replyTo,
		Subject: subject,
		HTML:    out.HTML,
		Text:    out.Text,
		Tags:    msg.Tags,
	})
}

// SendRaw delivers a prebuilt email.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) error {
	if email.From == "" {
		email.From = m.cfg.From
	}
	return m.deliver(ctx, email)
}

func (m *Mailer) deliver(ctx context.Context, email *Email) error {
	if err := email.validate(); err != nil {
		return err
	}
	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func expand(s string, data any) (string, error) {
	t, err := texttemplate.New("subject").Parse(s)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
