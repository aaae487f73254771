package mailer

import (
	"context"
	"fmt"
)

// Email is a fully rendered message.
type Email struct {
	Tags    map[string]string
	From    string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	To      []string
}

func (e *Email) validate() error {
	switch {
	case len(e.To) == 0:
		return ErrNoRecipient
	case e.Subject == "":
		return ErrNoSubject
	case e.HTML == "" && e.Text == "":
		return ErrNoContent
	}
	return nil
}

// Sender delivers a rendered Email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Address formats "Name <email>", or just the email when name is empty.
func Address(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
