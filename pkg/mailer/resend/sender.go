// Package resend delivers mailer emails through the Resend API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/mailer"
)

// Config holds the Resend credentials.
type Config struct {
	APIKey string `env:"RESEND_API_KEY"`
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool { return c.APIKey != "" }

// Sender implements mailer.Sender.
type Sender struct {
	client *resend.Client
}

func New(cfg Config) *Sender {
	return &Sender{client: resend.NewClient(cfg.APIKey)}
}

func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	res, err := s.client.Emails.SendWithContext(ctx, request(email))
	if err != nil {
		return fmt.Errorf("resend: send: %w", err)
	}
	if res == nil || res.Id == "" {
		return fmt.Errorf("resend: send: empty response")
	}
	return nil
}

func request(email *mailer.Email) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
	}
	for name, value := range email.Tags {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: value})
	}
	return req
}
