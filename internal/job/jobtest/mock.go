// Package jobtest provides test doubles for the job package's
// collaborators.
package jobtest

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/jobkit/internal/job"
)

// MockOracle is a configurable test double for job.Oracle.
type MockOracle struct {
	DueVal  bool
	DueErr  error
	PrevVal time.Time
	PrevErr error

	mu        sync.Mutex
	dueCalls  int
	prevCalls int
	lastExpr  string
}

// Compile-time interface check.
var _ job.Oracle = (*MockOracle)(nil)

// IsDue implements job.Oracle.
func (m *MockOracle) IsDue(expr string, _ time.Time) (bool, error) {
	m.mu.Lock()
	m.dueCalls++
	m.lastExpr = expr
	m.mu.Unlock()
	return m.DueVal, m.DueErr
}

// PreviousRunTime implements job.Oracle.
func (m *MockOracle) PreviousRunTime(expr string, _ time.Time) (time.Time, error) {
	m.mu.Lock()
	m.prevCalls++
	m.lastExpr = expr
	m.mu.Unlock()
	return m.PrevVal, m.PrevErr
}

// DueCalls returns the number of IsDue invocations.
func (m *MockOracle) DueCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dueCalls
}

// PrevCalls returns the number of PreviousRunTime invocations.
func (m *MockOracle) PrevCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prevCalls
}

// LastExpr returns the expression passed to the most recent call.
func (m *MockOracle) LastExpr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastExpr
}

// MockTimestamps is a test double for job.TimestampReader backed by an
// in-memory map. Paths without an entry return ReadErr.
type MockTimestamps struct {
	Stamps  map[string]int64
	ReadErr error
}

// Compile-time interface check.
var _ job.TimestampReader = (*MockTimestamps)(nil)

// ReadTimestamp implements job.TimestampReader.
func (m *MockTimestamps) ReadTimestamp(path string) (int64, error) {
	if ts, ok := m.Stamps[path]; ok {
		return ts, nil
	}
	return 0, m.ReadErr
}

// SinkWrite records one MockSink.Write call.
type SinkWrite struct {
	Content string
	Path    string
	Mode    job.Mode
}

// MockSink records writes and optionally fails on a specific path.
type MockSink struct {
	FailPath string // writes to this path return FailErr
	FailErr  error

	mu     sync.Mutex
	writes []SinkWrite
}

// Compile-time interface check.
var _ job.SinkWriter = (*MockSink)(nil)

// Write implements job.SinkWriter.
func (m *MockSink) Write(content, path string, mode job.Mode) error {
	if m.FailPath != "" && path == m.FailPath {
		return m.FailErr
	}
	m.mu.Lock()
	m.writes = append(m.writes, SinkWrite{Content: content, Path: path, Mode: mode})
	m.mu.Unlock()
	return nil
}

// Writes returns the recorded writes in order.
func (m *MockSink) Writes() []SinkWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SinkWrite, len(m.writes))
	copy(out, m.writes)
	return out
}

// SentMail records one MockMailer.Send call.
type SentMail struct {
	From        job.Address
	To          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []job.Attachment
}

// MockMailer records outgoing mail.
type MockMailer struct {
	SendErr error

	mu   sync.Mutex
	sent []SentMail
}

// Compile-time interface check.
var _ job.Mailer = (*MockMailer)(nil)

// Send implements job.Mailer.
func (m *MockMailer) Send(_ context.Context, from job.Address, to []string, subject, text, html string, attachments []job.Attachment) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	m.sent = append(m.sent, SentMail{
		From:        from,
		To:          append([]string(nil), to...),
		Subject:     subject,
		Text:        text,
		HTML:        html,
		Attachments: attachments,
	})
	m.mu.Unlock()
	return nil
}

// Sent returns the recorded messages in order.
func (m *MockMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMail, len(m.sent))
	copy(out, m.sent)
	return out
}

// MockRunner records compiled command strings handed to it.
type MockRunner struct {
	Output string
	RunErr error

	mu       sync.Mutex
	commands []string
}

// Compile-time interface check.
var _ job.Runner = (*MockRunner)(nil)

// Run implements job.Runner.
func (m *MockRunner) Run(_ context.Context, command string) (string, error) {
	m.mu.Lock()
	m.commands = append(m.commands, command)
	m.mu.Unlock()
	if m.RunErr != nil {
		return "", m.RunErr
	}
	return m.Output, nil
}

// Commands returns the recorded command strings in order.
func (m *MockRunner) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.commands))
	copy(out, m.commands)
	return out
}
