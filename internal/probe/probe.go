package probe

import (
	"context"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Checker performs a single check for a given target URL.
//
// Implementations never return an error: every failure mode is encoded in the
// returned outcome's Status.
type Checker interface {
	Check(ctx context.Context, target string) domain.CheckOutcome
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context, target string) domain.CheckOutcome

func (f CheckerFunc) Check(ctx context.Context, target string) domain.CheckOutcome {
	return f(ctx, target)
}
