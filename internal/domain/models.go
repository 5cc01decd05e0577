package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrorMarker replaces the status code in result log lines for network failures.
const ErrorMarker = "REQERR"

// Status classifies a single probe.
type Status int

const (
	StatusSuccess Status = iota
	StatusHTTPFailure
	StatusNetworkFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusHTTPFailure:
		return "http_failure"
	case StatusNetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "success":
		*s = StatusSuccess
	case "http_failure":
		*s = StatusHTTPFailure
	case "network_failure":
		*s = StatusNetworkFailure
	default:
		return fmt.Errorf("unknown status %q", string(b))
	}
	return nil
}

// CheckOutcome is the classified result of probing one domain once.
type CheckOutcome struct {
	CycleID    string    `json:"cycle_id,omitempty"`
	Domain     string    `json:"domain"`
	Status     Status    `json:"status"`
	StatusCode int       `json:"status_code,omitempty"` // unset for network failures
	LatencyMS  int64     `json:"latency_ms"`
	Error      string    `json:"error,omitempty"` // network failures only
	CheckedAt  time.Time `json:"checked_at"`
}

func (o CheckOutcome) Failed() bool {
	return o.Status != StatusSuccess
}

// Descriptor is the first column of a result log line.
func (o CheckOutcome) Descriptor() string {
	if o.Status == StatusNetworkFailure {
		return ErrorMarker
	}
	return strconv.Itoa(o.StatusCode)
}

func (o CheckOutcome) Failure() Failure {
	return Failure{
		Domain:     o.Domain,
		StatusCode: o.StatusCode,
		Detail:     o.Error,
		Network:    o.Status == StatusNetworkFailure,
	}
}

// Failure is what the notifier gets to see about a failed outcome.
type Failure struct {
	Domain     string `json:"domain"`
	StatusCode int    `json:"status_code,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Network    bool   `json:"network"`
}

// IsNetwork reports whether the failure carries an error description instead
// of an HTTP status.
func (f Failure) IsNetwork() bool {
	return f.Network
}

func (f Failure) Descriptor() string {
	if f.IsNetwork() {
		return f.Detail
	}
	return strconv.Itoa(f.StatusCode)
}

// AlertMode decides how failures of one cycle reach the notifier.
type AlertMode int

const (
	AlertPerFailure AlertMode = iota
	AlertGrouped
)

func (m AlertMode) String() string {
	if m == AlertGrouped {
		return "grouped"
	}
	return "per_failure"
}

func (m AlertMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseAlertMode accepts the flag forms used by SEND_GROUPED_MAIL.
func ParseAlertMode(raw string) (AlertMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "grouped":
		return AlertGrouped, nil
	case "0", "false", "no", "single", "per-failure", "per_failure":
		return AlertPerFailure, nil
	}
	return AlertPerFailure, fmt.Errorf("invalid alert mode %q", raw)
}
