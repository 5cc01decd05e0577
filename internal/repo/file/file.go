package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// TimeLayout is ISO-8601 in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Sink appends one line per outcome to a plain text file. The file is opened
// in append mode and never truncated or rotated.
type Sink struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func Open(path string) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure result log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open result log: %w", err)
	}
	return &Sink{path: path, f: f}, nil
}

// FormatLine renders <descriptor>,<domain>,<timestamp>,<latency>ms.
func FormatLine(o domain.CheckOutcome) string {
	return fmt.Sprintf("%s,%s,%s,%dms\n",
		o.Descriptor(), o.Domain, o.CheckedAt.UTC().Format(TimeLayout), o.LatencyMS)
}

func (s *Sink) Append(ctx context.Context, o domain.CheckOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("result log %s is closed", s.path)
	}
	if _, err := s.f.WriteString(FormatLine(o)); err != nil {
		return fmt.Errorf("write result log: %w", err)
	}
	return nil
}

func (s *Sink) Path() string { return s.path }

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
