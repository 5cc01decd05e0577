package scheduler

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// console prints human-readable progress. Lines from concurrent probes are
// serialized so they never interleave.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) printf(format string, args ...any) {
	if c == nil || c.w == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *console) outcome(o domain.CheckOutcome) {
	switch o.Status {
	case domain.StatusSuccess:
		c.printf("%s is online. Status code: %d\n", o.Domain, o.StatusCode)
	case domain.StatusHTTPFailure:
		c.printf("Error for %s: Status code: %d\n", o.Domain, o.StatusCode)
	default:
		c.printf("Error for %s: Request failed: %s\n", o.Domain, o.Error)
	}
}

// seconds rounds up so the display never shows 0 before the cycle fires.
func seconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
