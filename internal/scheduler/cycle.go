package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// CycleReport summarises one pass over every configured domain.
type CycleReport struct {
	ID         string                `json:"id"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Outcomes   []domain.CheckOutcome `json:"outcomes"`
	Failures   []domain.Failure      `json:"failures"`
}

// RunCycle checks every domain concurrently and returns once all of them have
// settled and their outcomes have been recorded. Probes are not cancelled by
// ctx: a cycle that has started always runs to completion.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	rep := CycleReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]domain.CheckOutcome, len(s.domains)),
	}
	probeCtx := context.WithoutCancel(ctx)
	log := s.log.With(zap.String("cycle_id", rep.ID))

	var g errgroup.Group
	for i, target := range s.domains {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error("outcome_processing_error", zap.String("domain", target), zap.Any("panic", r))
				}
			}()
			out := s.check(probeCtx, log, rep.ID, target)
			rep.Outcomes[i] = out
			s.settle(probeCtx, log, out)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range rep.Outcomes {
		if o.Failed() {
			rep.Failures = append(rep.Failures, o.Failure())
		}
	}
	if s.mode == domain.AlertGrouped && len(rep.Failures) > 0 {
		failures := append([]domain.Failure(nil), rep.Failures...)
		s.alerts.submit(alertJob{
			kind:    "grouped",
			domains: failureDomains(failures),
			send: func(ctx context.Context) error {
				return s.notifier.NotifyGrouped(ctx, failures)
			},
		})
	}
	rep.FinishedAt = time.Now().UTC()

	s.mu.Lock()
	s.cycles++
	s.last = &rep
	s.mu.Unlock()

	log.Info("cycle_completed",
		zap.Int("domains", len(rep.Outcomes)),
		zap.Int("failures", len(rep.Failures)),
		zap.Duration("took", rep.FinishedAt.Sub(rep.StartedAt)),
	)
	return rep
}

// check runs one probe. A panicking checker still yields an outcome so the
// cycle never loses a domain.
func (s *Scheduler) check(ctx context.Context, log *zap.Logger, cycleID, target string) (out domain.CheckOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("probe_panic", zap.String("domain", target), zap.Any("panic", r))
			out = domain.CheckOutcome{
				Status:    domain.StatusNetworkFailure,
				Error:     fmt.Sprintf("probe panic: %v", r),
				LatencyMS: time.Since(start).Milliseconds(),
				CheckedAt: time.Now().UTC(),
			}
		}
		out.Domain = target
		out.CycleID = cycleID
	}()
	return s.checker.Check(ctx, target)
}

// settle records one outcome and routes it to the notifier when it failed.
func (s *Scheduler) settle(ctx context.Context, log *zap.Logger, out domain.CheckOutcome) {
	s.console.outcome(out)
	log.Debug("domain_checked",
		zap.String("domain", out.Domain),
		zap.Stringer("status", out.Status),
		zap.Int("status_code", out.StatusCode),
		zap.Int64("latency_ms", out.LatencyMS),
		zap.String("error", out.Error),
	)

	if err := s.record(ctx, out); err != nil {
		log.Warn("sink_append_error", zap.String("domain", out.Domain), zap.Error(err))
		s.console.printf("Error writing to log file: %v\n", err)
	}

	if !out.Failed() || s.mode != domain.AlertPerFailure {
		return
	}
	f := out.Failure()
	s.alerts.submit(alertJob{
		kind:    "single",
		domains: []string{f.Domain},
		send: func(ctx context.Context) error {
			return s.notifier.NotifySingle(ctx, f)
		},
	})
}

// record appends to the sink under SinkTimeout so a hung store cannot hold
// the cycle's barrier open.
func (s *Scheduler) record(ctx context.Context, out domain.CheckOutcome) error {
	ctx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
	defer cancel()
	return s.sink.Append(ctx, out)
}

func failureDomains(fs []domain.Failure) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Domain
	}
	return out
}
