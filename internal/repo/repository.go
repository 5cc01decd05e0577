package repo

import (
	"context"

	"go.uber.org/multierr"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// ResultSink is an append-only destination for check outcomes.
type ResultSink interface {
	Append(ctx context.Context, o domain.CheckOutcome) error
}

// LatestReader returns the most recent outcome per domain.
type LatestReader interface {
	Latest(ctx context.Context) ([]domain.CheckOutcome, error)
}

// Multi appends to every sink, even when an earlier one fails.
type Multi []ResultSink

func (m Multi) Append(ctx context.Context, o domain.CheckOutcome) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Append(ctx, o))
	}
	return err
}
