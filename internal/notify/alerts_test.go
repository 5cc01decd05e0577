package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/hamed0406/sitewatch/internal/domain"
)

type recordingSender struct {
	subjects []string
	bodies   []string
	err      error
}

func (r *recordingSender) Send(_ context.Context, subject, body string) error {
	r.subjects = append(r.subjects, subject)
	r.bodies = append(r.bodies, body)
	return r.err
}

func fixedAlerts(s Sender) *Alerts {
	a := NewAlerts(s)
	a.Now = func() time.Time { return time.Date(2025, 8, 18, 9, 5, 7, 0, time.UTC) }
	return a
}

func TestAlerts_NotifySingle_HTTPFailure(t *testing.T) {
	rs := &recordingSender{}
	err := fixedAlerts(rs).NotifySingle(context.Background(), domain.Failure{Domain: "https://down.example", StatusCode: 503})
	if err != nil {
		t.Fatal(err)
	}
	if rs.subjects[0] != "ALERT: https://down.example FAILED, CODE 503" {
		t.Fatalf("unexpected subject %q", rs.subjects[0])
	}
	want := "Date: 2025-08-18 - Time: 09:05:07\n\nError for https://down.example: Status code: 503\n"
	if rs.bodies[0] != want {
		t.Fatalf("unexpected body:\n%q\nwant\n%q", rs.bodies[0], want)
	}
}

func TestAlerts_NotifySingle_NetworkFailureUsesDescription(t *testing.T) {
	rs := &recordingSender{}
	f := domain.Failure{Domain: "https://gone.example", Detail: "dial tcp 127.0.0.1:1: connect: connection refused", Network: true}
	if err := fixedAlerts(rs).NotifySingle(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if rs.subjects[0] != "ALERT: https://gone.example FAILED, REQUEST ERROR" {
		t.Fatalf("unexpected subject %q", rs.subjects[0])
	}
	if !strings.Contains(rs.bodies[0], "Request error: dial tcp 127.0.0.1:1: connect: connection refused") {
		t.Fatalf("body must carry the error description: %q", rs.bodies[0])
	}
	if strings.Contains(rs.bodies[0], "Status code") {
		t.Fatalf("network failure must not render a status code: %q", rs.bodies[0])
	}
}

func TestAlerts_NotifyGrouped_SubjectWording(t *testing.T) {
	rs := &recordingSender{}
	a := fixedAlerts(rs)

	one := []domain.Failure{{Domain: "https://a", StatusCode: 500}}
	two := []domain.Failure{{Domain: "https://a", StatusCode: 500}, {Domain: "https://b", Detail: "timeout", Network: true}}
	if err := a.NotifyGrouped(context.Background(), one); err != nil {
		t.Fatal(err)
	}
	if err := a.NotifyGrouped(context.Background(), two); err != nil {
		t.Fatal(err)
	}

	if rs.subjects[0] != "ALERT: 1 site failed" || rs.subjects[1] != "ALERT: 2 sites failed" {
		t.Fatalf("unexpected subjects %q", rs.subjects)
	}
	body := rs.bodies[1]
	if !strings.Contains(body, "Failed websites:\n\n") ||
		!strings.Contains(body, "Error for https://a: Status code: 500\n") ||
		!strings.Contains(body, "Error for https://b: Request error: timeout\n") {
		t.Fatalf("unexpected grouped body:\n%s", body)
	}
}

func TestAlerts_NotifyGrouped_EmptyIsNoop(t *testing.T) {
	rs := &recordingSender{}
	if err := fixedAlerts(rs).NotifyGrouped(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(rs.subjects) != 0 {
		t.Fatalf("expected no message for empty failure list")
	}
}

func TestAlerts_PropagatesSenderError(t *testing.T) {
	boom := errors.New("smtp down")
	err := fixedAlerts(&recordingSender{err: boom}).NotifySingle(context.Background(), domain.Failure{Domain: "https://a", StatusCode: 500})
	if !errors.Is(err, boom) {
		t.Fatalf("want sender error, got %v", err)
	}
}

func TestMulti_SendsToAllAndCombinesErrors(t *testing.T) {
	ok := &recordingSender{}
	bad1 := &recordingSender{err: errors.New("a")}
	bad2 := &recordingSender{err: errors.New("b")}
	err := Multi{bad1, nil, ok, bad2}.Send(context.Background(), "s", "b")
	if len(ok.subjects) != 1 || len(bad2.subjects) != 1 {
		t.Fatalf("every sender must be tried")
	}
	if len(multierr.Errors(err)) != 2 {
		t.Fatalf("want both errors, got %v", err)
	}
}
