// Package mail ships captured job output over SMTP. It implements the
// job core's Mailer boundary; transport details stay here.
package mail

import (
	"bytes"
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/flemzord/jobkit/internal/job"
)

// Config holds SMTP transport settings.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// StartTLS requires STARTTLS on the connection. When false, TLS is
	// used opportunistically.
	StartTLS bool `yaml:"start_tls,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.Port <= 0 {
		c.Port = 587
	}
	return c
}

// SMTP is a job.Mailer backed by an SMTP server.
type SMTP struct {
	cfg Config
}

// Compile-time interface check.
var _ job.Mailer = (*SMTP)(nil)

// NewSMTP creates an SMTP mailer. Host is required.
func NewSMTP(cfg Config) (*SMTP, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mail: missing SMTP host")
	}
	return &SMTP{cfg: cfg.withDefaults()}, nil
}

// Send implements job.Mailer.
func (s *SMTP) Send(ctx context.Context, from job.Address, to []string, subject, text, html string, attachments []job.Attachment) error {
	if len(to) == 0 {
		return fmt.Errorf("mail: no recipients")
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(from.Name, from.Addr); err != nil {
		return fmt.Errorf("mail: sender %q: %w", from.Addr, err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("mail: recipients: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, text)
	if html != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, html)
	}

	for _, a := range attachments {
		if err := msg.AttachReader(a.Name, bytes.NewReader(a.Content)); err != nil {
			return fmt.Errorf("mail: attach %s: %w", a.Name, err)
		}
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: send via %s: %w", s.cfg.Host, err)
	}
	return nil
}

func (s *SMTP) client() (*gomail.Client, error) {
	opts := []gomail.Option{gomail.WithPort(s.cfg.Port)}

	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	if s.cfg.StartTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: client for %s: %w", s.cfg.Host, err)
	}
	return client, nil
}
