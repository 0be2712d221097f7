package mailer

import (
	"errors"

	"gopkg.in/gomail.v2"
)

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// Validate checks that every SMTP setting is present.
func (c Config) Validate() error {
	var missing []error
	if c.Host == "" {
		missing = append(missing, errors.New("missing SMTP_HOST environment variable"))
	}
	if c.Port == 0 {
		missing = append(missing, errors.New("missing SMTP_PORT environment variable"))
	}
	if c.From == "" {
		missing = append(missing, errors.New("missing SMTP_FROM environment variable"))
	}

	return errors.Join(missing...)
}

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Mailer sends email over SMTP.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

// NewMailer creates a Mailer from cfg.
func NewMailer(cfg Config) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return errors.New("no recipients specified")
	}

	return m.dialer.DialAndSend(m.newMessage(email))
}

// SendHTML sends an HTML email.
func (m *Mailer) SendHTML(to []string, subject, htmlBody string) error {
	return m.Send(Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
}

func (m *Mailer) newMessage(email Email) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}

	return msg
}
