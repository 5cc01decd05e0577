package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/httpapi"
	"github.com/hamed0406/sitewatch/internal/logging"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/repo/file"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
	"github.com/hamed0406/sitewatch/internal/repo/postgres"
	"github.com/hamed0406/sitewatch/internal/scheduler"
)

// app holds everything one monitor process owns.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	results *file.Sink
	latest  *memory.Store
	pg      *postgres.Store
	sched   *scheduler.Scheduler
}

func newApp(ctx context.Context, cfg config.Config, console io.Writer) (*app, error) {
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: logger, latest: memory.New()}
	for _, problem := range cfg.DomainProblems() {
		logger.Warn("domain_malformed", zap.Error(problem))
	}

	a.results, err = file.Open(cfg.ResultLog)
	if err != nil {
		a.close()
		return nil, err
	}
	sinks := repo.Multi{a.results, a.latest}

	if cfg.DatabaseURL != "" {
		a.pg, err = postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		if err := a.pg.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, err
		}
		sinks = append(sinks, a.pg)
	}

	var checker probe.Checker = probe.NewHTTPChecker(cfg.HTTPTimeout)
	if cfg.DNSDiagnose {
		checker = probe.NewDNSDiagnoser(checker)
	}

	senders := notify.Multi{notify.NewEmail(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Secure:   cfg.SMTP.Secure,
		Username: cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		To:       cfg.SMTP.To,
	})}
	if cfg.SlackWebhook != "" {
		senders = append(senders, notify.NewSlack(cfg.SlackWebhook))
	}

	a.sched = scheduler.New(logger, checker, sinks, notify.NewAlerts(senders), scheduler.Options{
		Domains:      cfg.Domains,
		Mode:         cfg.AlertMode,
		Interval:     cfg.Interval,
		AlertWorkers: cfg.AlertWorkers,
		Console:      console,
	})

	logger.Info("startup",
		zap.Int("domains", len(cfg.Domains)),
		zap.Stringer("alert_mode", cfg.AlertMode),
		zap.Duration("interval", cfg.Interval),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.String("result_log", cfg.ResultLog),
		zap.Bool("postgres", a.pg != nil),
		zap.Bool("slack", cfg.SlackWebhook != ""),
	)
	return a, nil
}

// latestReader prefers postgres so the API survives restarts.
func (a *app) latestReader() repo.LatestReader {
	if a.pg != nil {
		return a.pg
	}
	return a.latest
}

// serveStatus starts the status API when an address is configured. The
// returned func shuts it down.
func (a *app) serveStatus() func() {
	if a.cfg.StatusAddr == "" {
		return func() {}
	}
	api := httpapi.NewServer(a.log, a.latestReader(), a.sched)
	srv := &http.Server{
		Addr: a.cfg.StatusAddr,
		Handler: api.Router(httpapi.Options{
			Keys:           a.cfg.StatusAPIKeys,
			AllowedOrigins: a.cfg.AllowedOrigins,
			RatePerMin:     a.cfg.StatusRate,
			RateBurst:      max(1, a.cfg.StatusRate/2),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.log.Info("api_listen", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("api_listen_error", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.log.Warn("api_shutdown_error", zap.Error(err))
		}
	}
}

func (a *app) close() {
	if a.sched != nil {
		a.sched.Close()
	}
	if a.results != nil {
		if err := a.results.Close(); err != nil {
			a.log.Warn("result_log_close_error", zap.Error(err))
		}
	}
	if a.pg != nil {
		a.pg.Close()
	}
	_ = a.log.Sync()
}

func summary(rep scheduler.CycleReport) string {
	return fmt.Sprintf("Checked %d sites, %d failed", len(rep.Outcomes), len(rep.Failures))
}
