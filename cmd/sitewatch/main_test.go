package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/sitewatch/internal/config"
)

// clearEnv keeps host settings from leaking into the env file under test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := append([]string{"DATABASE_URL", "STATUS_ADDR", "SLACK_WEBHOOK_URL", "RESULT_LOG", "LOG_DIR", "DNS_DIAGNOSE"}, config.RequiredKeys...)
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func writeEnv(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestCheck_MissingConfigFails(t *testing.T) {
	clearEnv(t)
	env := writeEnv(t, t.TempDir(), "DOMAINS=https://a.example")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"check", "--env-file", env})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalid))
	assert.Contains(t, err.Error(), "SMTP_HOST")
}

func TestCheck_RunsOneCycle(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	dir := t.TempDir()
	env := writeEnv(t, dir,
		"DOMAINS="+up.URL,
		"SMTP_HOST=127.0.0.1",
		"SMTP_PORT=2525",
		"SMTP_SECURE=0",
		"EMAIL_USER=monitor@example.com",
		"EMAIL_PASSWORD=secret",
		"EMAIL_TO=ops@example.com",
		"SEND_GROUPED_MAIL=1",
		"DNS_DIAGNOSE=0",
		"RESULT_LOG="+filepath.Join(dir, "watch-sites.log"),
		"LOG_DIR="+filepath.Join(dir, "logs"),
	)
	clearEnv(t)

	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetArgs([]string{"check", "--env-file", env})
	cmd.SetOut(out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), up.URL+" is online. Status code: 200")
	assert.Contains(t, out.String(), "Checked 1 sites, 0 failed")

	b, err := os.ReadFile(filepath.Join(dir, "watch-sites.log"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "200,"+up.URL+","), string(b))
}

func TestCheck_MalformedDomainIsRequestError(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	dir := t.TempDir()
	env := writeEnv(t, dir,
		"DOMAINS="+up.URL+",example.invalid",
		"SMTP_HOST=127.0.0.1",
		"SMTP_PORT=1",
		"SMTP_SECURE=0",
		"EMAIL_USER=monitor@example.com",
		"EMAIL_PASSWORD=secret",
		"EMAIL_TO=ops@example.com",
		"SEND_GROUPED_MAIL=1",
		"DNS_DIAGNOSE=0",
		"RESULT_LOG="+filepath.Join(dir, "watch-sites.log"),
		"LOG_DIR="+filepath.Join(dir, "logs"),
	)
	clearEnv(t)

	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetArgs([]string{"check", "--env-file", env})
	cmd.SetOut(out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "Checked 2 sites, 1 failed")
	b, err := os.ReadFile(filepath.Join(dir, "watch-sites.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "REQERR,example.invalid,")
}
