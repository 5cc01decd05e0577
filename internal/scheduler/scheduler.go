package scheduler

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// State is Waiting between cycles and Running while one is in flight.
type State int

const (
	StateWaiting State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "waiting"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Options struct {
	Domains  []string
	Mode     domain.AlertMode
	Interval time.Duration // between cycles, default 60s
	Tick     time.Duration // countdown granularity, default 1s

	AlertWorkers int           // default 2
	AlertQueue   int           // default 256
	AlertTimeout time.Duration // per alert, default 30s
	SinkTimeout  time.Duration // per recorded outcome, default 10s

	Console io.Writer // progress lines; nil disables them
	OnCycle func(CycleReport)
}

// Scheduler drives repeated check cycles over a fixed domain set.
// Its countdown and state are only mutated by the goroutine running Run.
type Scheduler struct {
	log      *zap.Logger
	checker  probe.Checker
	sink     repo.ResultSink
	notifier notify.Notifier
	console  *console
	alerts   *dispatcher
	onCycle  func(CycleReport)

	domains     []string
	mode        domain.AlertMode
	interval    time.Duration
	tick        time.Duration
	sinkTimeout time.Duration

	mu        sync.RWMutex
	state     State
	remaining time.Duration
	cycles    int
	last      *CycleReport
}

func New(
	logger *zap.Logger,
	checker probe.Checker,
	sink repo.ResultSink,
	notifier notify.Notifier,
	opts Options,
) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.AlertWorkers < 1 {
		opts.AlertWorkers = 2
	}
	if opts.AlertQueue < 1 {
		opts.AlertQueue = 256
	}
	if opts.AlertTimeout <= 0 {
		opts.AlertTimeout = 30 * time.Second
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = 10 * time.Second
	}
	if sink == nil {
		sink = repo.Multi{}
	}
	c := &console{w: opts.Console}
	return &Scheduler{
		log:         logger,
		checker:     checker,
		sink:        sink,
		notifier:    notifier,
		console:     c,
		alerts:      newDispatcher(logger, c, opts.AlertWorkers, opts.AlertQueue, opts.AlertTimeout),
		onCycle:     opts.OnCycle,
		domains:     append([]string(nil), opts.Domains...),
		mode:        opts.Mode,
		interval:    opts.Interval,
		tick:        opts.Tick,
		sinkTimeout: opts.SinkTimeout,
		state:       StateWaiting,
		remaining:   opts.Interval,
	}
}

// Run performs an immediate cycle, then one cycle every interval, until ctx
// is cancelled. Queued alerts are flushed before it returns.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.Close()
	s.log.Info("scheduler_started",
		zap.Strings("domains", s.domains),
		zap.Duration("interval", s.interval),
		zap.Stringer("alert_mode", s.mode),
	)

	s.runCycle(ctx)

	t := time.NewTicker(s.tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler_stopped")
			return nil
		case <-t.C:
			if !s.countdown() {
				continue
			}
			s.runCycle(ctx)
			// drop a tick that piled up while the cycle was running
			select {
			case <-t.C:
			default:
			}
			t.Reset(s.tick)
		}
	}
}

// Close flushes outstanding alerts. Alerts submitted afterwards are dropped.
func (s *Scheduler) Close() {
	s.alerts.close()
}

// countdown advances the timer by one tick and reports whether a cycle is due.
func (s *Scheduler) countdown() bool {
	s.mu.Lock()
	s.remaining -= s.tick
	rem := s.remaining
	s.mu.Unlock()

	if rem > 0 {
		s.console.printf("Next check in %d seconds\n", seconds(rem))
		return false
	}
	return true
}

// runCycle wraps RunCycle with the loop's guarantees: nothing raised while
// processing a cycle escapes, and the countdown always starts over.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.setState(StateRunning)
	defer s.resetCountdown()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("cycle_error", zap.Any("panic", r))
			s.console.printf("Error: %v\n", r)
		}
	}()

	rep := s.RunCycle(ctx)
	if s.onCycle != nil {
		s.onCycle(rep)
	}
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Scheduler) resetCountdown() {
	s.mu.Lock()
	s.state = StateWaiting
	s.remaining = s.interval
	s.mu.Unlock()
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State     State            `json:"state"`
	Remaining time.Duration    `json:"-"`
	Interval  time.Duration    `json:"-"`
	Mode      domain.AlertMode `json:"alert_mode"`
	Domains   []string         `json:"domains"`
	Cycles    int              `json:"cycles"`
	LastCycle *CycleReport     `json:"last_cycle,omitempty"`
}

func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		State:     s.state,
		Remaining: s.remaining,
		Interval:  s.interval,
		Mode:      s.mode,
		Domains:   append([]string(nil), s.domains...),
		Cycles:    s.cycles,
		LastCycle: s.last,
	}
}
