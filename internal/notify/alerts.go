package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Alerts composes failure messages and passes them to a Sender.
type Alerts struct {
	Sender Sender
	Now    func() time.Time
}

func NewAlerts(s Sender) *Alerts {
	return &Alerts{Sender: s, Now: time.Now}
}

func (a *Alerts) NotifySingle(ctx context.Context, f domain.Failure) error {
	subject, body := a.single(f)
	return a.Sender.Send(ctx, subject, body)
}

func (a *Alerts) NotifyGrouped(ctx context.Context, fs []domain.Failure) error {
	if len(fs) == 0 {
		return nil
	}
	subject, body := a.grouped(fs)
	return a.Sender.Send(ctx, subject, body)
}

func (a *Alerts) single(f domain.Failure) (string, string) {
	subject := fmt.Sprintf("ALERT: %s FAILED, CODE %d", f.Domain, f.StatusCode)
	if f.IsNetwork() {
		subject = fmt.Sprintf("ALERT: %s FAILED, REQUEST ERROR", f.Domain)
	}

	var b strings.Builder
	b.WriteString(a.stamp())
	b.WriteString("\n\n")
	b.WriteString(failureLine(f))
	return subject, b.String()
}

func (a *Alerts) grouped(fs []domain.Failure) (string, string) {
	plural := "s"
	if len(fs) == 1 {
		plural = ""
	}
	subject := fmt.Sprintf("ALERT: %d site%s failed", len(fs), plural)

	var b strings.Builder
	b.WriteString(a.stamp())
	b.WriteString("\n\nFailed websites:\n\n")
	for _, f := range fs {
		b.WriteString(failureLine(f))
	}
	return subject, b.String()
}

func (a *Alerts) stamp() string {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	t := now()
	return fmt.Sprintf("Date: %s - Time: %s", t.Format("2006-01-02"), t.Format("15:04:05"))
}

func failureLine(f domain.Failure) string {
	if f.IsNetwork() {
		return fmt.Sprintf("Error for %s: Request error: %s\n", f.Domain, f.Detail)
	}
	return fmt.Sprintf("Error for %s: Status code: %d\n", f.Domain, f.StatusCode)
}
