// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hamed0406/sitewatch/internal/config"
)

func main() {
	envFile := flag.String("env-file", ".env", "file to seed environment variables from")
	flag.Parse()
	os.Exit(run(*envFile, os.Stdout, os.Stderr))
}

// run prints a report of the configuration and returns the exit code.
func run(envFile string, stdout, stderr io.Writer) int {
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintln(stderr, "✖", err)
		return 1
	}

	ok(fmt.Sprintf("%d domain(s): %s", len(cfg.Domains), strings.Join(cfg.Domains, ", ")))
	for _, problem := range cfg.DomainProblems() {
		warn(problem.Error() + "; it will be reported as a request error every cycle.")
	}
	ok(fmt.Sprintf("SMTP %s:%d secure=%v, mail to %s", cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Secure, strings.Join(cfg.SMTP.To, ", ")))
	ok(fmt.Sprintf("alert mode %s, every %s, timeout %s", cfg.AlertMode, cfg.Interval, cfg.HTTPTimeout))
	ok("result log " + cfg.ResultLog)

	if cfg.HTTPTimeout == 0 {
		warn("HTTP_TIMEOUT=0: a hung site will stall its cycle indefinitely.")
	}
	if !cfg.SMTP.Secure && cfg.SMTP.Port == 465 {
		warn("SMTP_PORT=465 usually expects SMTP_SECURE=1.")
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty: results are kept in memory and the result log only.")
	} else {
		ok("DATABASE_URL present")
	}

	if cfg.StatusAddr == "" {
		warn("STATUS_ADDR empty: status API disabled.")
	} else {
		ok("STATUS_ADDR=" + cfg.StatusAddr)
		if len(cfg.StatusAPIKeys) == 0 {
			warn("STATUS_API_KEYS empty: /api routes are open to anyone who can reach " + cfg.StatusAddr + ".")
		}
		if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
			warn("ALLOWED_ORIGINS=*: any browser origin may read the status API.")
		}
	}

	ok("preflight passed")
	return 0
}
