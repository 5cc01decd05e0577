package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// HTTPChecker probes a target with a single HEAD request.
type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker builds a checker whose client does not follow redirects.
// A zero timeout leaves the request bounded only by the transport defaults.
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) domain.CheckOutcome {
	start := time.Now()
	out := domain.CheckOutcome{Domain: target}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return networkFailure(out, err, start)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return networkFailure(out, err, start)
	}
	defer resp.Body.Close()

	out.LatencyMS = time.Since(start).Milliseconds()
	out.StatusCode = resp.StatusCode
	out.CheckedAt = time.Now().UTC()
	if resp.StatusCode == http.StatusOK {
		out.Status = domain.StatusSuccess
	} else {
		out.Status = domain.StatusHTTPFailure
	}
	return out
}

func networkFailure(out domain.CheckOutcome, err error, start time.Time) domain.CheckOutcome {
	out.Status = domain.StatusNetworkFailure
	out.StatusCode = 0
	out.Error = err.Error()
	out.LatencyMS = time.Since(start).Milliseconds()
	out.CheckedAt = time.Now().UTC()
	return out
}
