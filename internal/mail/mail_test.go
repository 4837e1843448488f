package mail

import (
	"testing"
)

func TestNewSMTP_RequiresHost(t *testing.T) {
	t.Parallel()

	if _, err := NewSMTP(Config{}); err == nil {
		t.Fatal("missing host should be rejected")
	}
}

func TestNewSMTP_DefaultPort(t *testing.T) {
	t.Parallel()

	s, err := NewSMTP(Config{Host: "smtp.example.com"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.cfg.Port != 587 {
		t.Errorf("port = %d, want 587", s.cfg.Port)
	}
}

func TestNewSMTP_ExplicitPort(t *testing.T) {
	t.Parallel()

	s, err := NewSMTP(Config{Host: "smtp.example.com", Port: 2525})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.cfg.Port != 2525 {
		t.Errorf("port = %d, want 2525", s.cfg.Port)
	}
}

func TestClient_AuthOnlyWithUsername(t *testing.T) {
	t.Parallel()

	anon, err := NewSMTP(Config{Host: "smtp.example.com"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := anon.client(); err != nil {
		t.Errorf("anonymous client: %v", err)
	}

	authed, err := NewSMTP(Config{
		Host:     "smtp.example.com",
		Username: "jobs",
		Password: "secret",
		StartTLS: true,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := authed.client(); err != nil {
		t.Errorf("authenticated client: %v", err)
	}
}
