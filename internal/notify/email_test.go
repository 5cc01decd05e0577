package notify

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
)

func TestEmail_MessageHeaders(t *testing.T) {
	e := NewEmail(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "monitor@example.com",
		To:       []string{"ops@example.com", "oncall@example.com"},
	})

	m, err := e.message("ALERT: 2 sites failed", "body")
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if got := m.GetGenHeader(mail.HeaderSubject); len(got) != 1 || got[0] != "ALERT: 2 sites failed" {
		t.Fatalf("unexpected subject header %v", got)
	}
	rcpts, err := m.GetRecipients()
	if err != nil {
		t.Fatalf("recipients: %v", err)
	}
	if len(rcpts) != 2 {
		t.Fatalf("want 2 recipients, got %v", rcpts)
	}
	if from := m.GetFromString(); len(from) != 1 || !strings.Contains(from[0], "monitor@example.com") {
		t.Fatalf("sender should default to the SMTP user, got %v", from)
	}
}

func TestEmail_InvalidRecipient(t *testing.T) {
	e := NewEmail(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "a@example.com", To: []string{"not an address"}})
	if _, err := e.message("s", "b"); err == nil {
		t.Fatalf("expected invalid recipient error")
	}
}

func TestEmail_SendFailsWhenServerUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	e := NewEmail(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    port,
		From:    "a@example.com",
		To:      []string{"b@example.com"},
		Timeout: time.Second,
	})
	if err := e.Send(context.Background(), "s", "b"); err == nil {
		t.Fatalf("expected dial error")
	}
}
