package notify

import (
	"context"

	"go.uber.org/multierr"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Notifier is what the scheduler hands failures to.
type Notifier interface {
	NotifySingle(ctx context.Context, f domain.Failure) error
	NotifyGrouped(ctx context.Context, fs []domain.Failure) error
}

// Sender delivers an already composed message over one transport.
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// Multi sends through every transport and reports all failures.
type Multi []Sender

func (m Multi) Send(ctx context.Context, subject, body string) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Send(ctx, subject, body))
	}
	return err
}
