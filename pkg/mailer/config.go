package mailer

// Config holds sender defaults.
type Config struct {
	From            string `env:"MAIL_FROM" envDefault:"ACC <noreply@animalcrossingcommunity.com>"`
	ReplyTo         string `env:"MAIL_REPLY_TO"`
	FallbackSubject string `env:"MAIL_FALLBACK_SUBJECT" envDefault:"Animal Crossing Community"`
	Layout          string `env:"MAIL_LAYOUT" envDefault:"base.html"`
}
