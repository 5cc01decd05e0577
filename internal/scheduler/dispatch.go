package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type alertJob struct {
	kind    string // "single" or "grouped"
	domains []string
	send    func(ctx context.Context) error
}

// dispatcher delivers alerts on a small worker pool so a slow mail server
// never holds up the scheduling loop.
type dispatcher struct {
	log     *zap.Logger
	console *console
	timeout time.Duration
	jobs    chan alertJob
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func newDispatcher(log *zap.Logger, c *console, workers, queue int, timeout time.Duration) *dispatcher {
	d := &dispatcher{
		log:     log,
		console: c,
		timeout: timeout,
		jobs:    make(chan alertJob, queue),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// submit never blocks. It reports false when the alert was dropped.
func (d *dispatcher) submit(job alertJob) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("alert_dropped", zap.String("kind", job.kind), zap.Strings("domains", job.domains), zap.String("reason", "dispatcher closed"))
		return false
	}
	select {
	case d.jobs <- job:
		return true
	default:
		d.log.Error("alert_dropped", zap.String("kind", job.kind), zap.Strings("domains", job.domains), zap.String("reason", "queue full"))
		d.console.printf("Error sending email: alert queue full, dropped %s alert\n", job.kind)
		return false
	}
}

func (d *dispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		if err := d.deliver(job); err != nil {
			d.console.printf("Error sending email: %v\n", err)
			continue
		}
		d.log.Info("alert_sent", zap.String("kind", job.kind), zap.Strings("domains", job.domains))
		if len(job.domains) == 1 {
			d.console.printf("Email sent for %s\n", job.domains[0])
		} else {
			d.console.printf("Email sent for %d failed sites\n", len(job.domains))
		}
	}
}

// deliver runs one send under its own timeout. A panicking transport is
// logged like any other send error and the worker carries on.
func (d *dispatcher) deliver(job alertJob) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("alert panic: %v", r)
			d.log.Error("alert_send_error", zap.String("kind", job.kind), zap.Strings("domains", job.domains), zap.Any("panic", r))
			return
		}
		if err != nil {
			d.log.Error("alert_send_error", zap.String("kind", job.kind), zap.Strings("domains", job.domains), zap.Error(err))
		}
	}()
	return job.send(ctx)
}

// close stops accepting alerts and waits for queued ones to finish.
func (d *dispatcher) close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
	})
}
