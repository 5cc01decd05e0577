package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// ErrInvalid wraps every configuration problem reported by Load.
var ErrInvalid = errors.New("invalid configuration")

type SMTP struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
	From     string
	To       []string
}

type Config struct {
	Domains        []string
	SMTP           SMTP
	AlertMode      domain.AlertMode
	Interval       time.Duration // time between cycles
	HTTPTimeout    time.Duration // 0 means transport defaults only
	DNSDiagnose    bool
	AlertWorkers   int
	ResultLog      string // append-only outcome log
	LogDir         string // operational logs
	LogLevel       string
	DatabaseURL    string // empty disables the postgres sink
	StatusAddr     string // empty disables the status API
	StatusAPIKeys  []string
	StatusRate     int // requests per minute per client; 0 disables
	AllowedOrigins []string
	SlackWebhook   string
}

// RequiredKeys must be present and non-blank.
var RequiredKeys = []string{
	"DOMAINS",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_SECURE",
	"EMAIL_USER",
	"EMAIL_PASSWORD",
	"EMAIL_TO",
	"SEND_GROUPED_MAIL",
}

// settings mirrors the raw environment; json tags name the variables in
// validation errors.
type settings struct {
	Domains         string `json:"DOMAINS"`
	SMTPHost        string `json:"SMTP_HOST"`
	SMTPPort        string `json:"SMTP_PORT"`
	SMTPSecure      string `json:"SMTP_SECURE"`
	EmailUser       string `json:"EMAIL_USER"`
	EmailPassword   string `json:"EMAIL_PASSWORD"`
	EmailTo         string `json:"EMAIL_TO"`
	EmailFrom       string `json:"EMAIL_FROM"`
	SendGroupedMail string `json:"SEND_GROUPED_MAIL"`
	CheckInterval   string `json:"CHECK_INTERVAL"`
	HTTPTimeout     string `json:"HTTP_TIMEOUT"`
	DNSDiagnose     string `json:"DNS_DIAGNOSE"`
	AlertWorkers    string `json:"ALERT_WORKERS"`
	ResultLog       string `json:"RESULT_LOG"`
	LogDir          string `json:"LOG_DIR"`
	LogLevel        string `json:"LOG_LEVEL"`
	DatabaseURL     string `json:"DATABASE_URL"`
	StatusAddr      string `json:"STATUS_ADDR"`
	StatusAPIKeys   string `json:"STATUS_API_KEYS"`
	StatusRate      string `json:"STATUS_RATE_LIMIT"`
	AllowedOrigins  string `json:"ALLOWED_ORIGINS"`
	SlackWebhook    string `json:"SLACK_WEBHOOK_URL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CHECK_INTERVAL", "60s")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("DNS_DIAGNOSE", "true")
	v.SetDefault("ALERT_WORKERS", "2")
	v.SetDefault("RESULT_LOG", "watch-sites.log")
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STATUS_RATE_LIMIT", "120")
	v.SetDefault("ALLOWED_ORIGINS", "*")
}

// Load reads the process environment, seeded from envFile when it exists.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}
	v.AutomaticEnv()

	s := readSettings(v)
	if err := s.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s.config()
}

func readSettings(v *viper.Viper) settings {
	get := func(key string) string { return strings.TrimSpace(v.GetString(key)) }
	return settings{
		Domains:         get("DOMAINS"),
		SMTPHost:        get("SMTP_HOST"),
		SMTPPort:        get("SMTP_PORT"),
		SMTPSecure:      get("SMTP_SECURE"),
		EmailUser:       get("EMAIL_USER"),
		EmailPassword:   get("EMAIL_PASSWORD"),
		EmailTo:         get("EMAIL_TO"),
		EmailFrom:       get("EMAIL_FROM"),
		SendGroupedMail: get("SEND_GROUPED_MAIL"),
		CheckInterval:   get("CHECK_INTERVAL"),
		HTTPTimeout:     get("HTTP_TIMEOUT"),
		DNSDiagnose:     get("DNS_DIAGNOSE"),
		AlertWorkers:    get("ALERT_WORKERS"),
		ResultLog:       get("RESULT_LOG"),
		LogDir:          get("LOG_DIR"),
		LogLevel:        get("LOG_LEVEL"),
		DatabaseURL:     get("DATABASE_URL"),
		StatusAddr:      get("STATUS_ADDR"),
		StatusAPIKeys:   get("STATUS_API_KEYS"),
		StatusRate:      get("STATUS_RATE_LIMIT"),
		AllowedOrigins:  get("ALLOWED_ORIGINS"),
		SlackWebhook:    get("SLACK_WEBHOOK_URL"),
	}
}

func (s settings) Validate() error {
	required := validation.Required.Error("is not defined")
	return validation.ValidateStruct(&s,
		validation.Field(&s.Domains, required, validation.By(validateDomains)),
		validation.Field(&s.SMTPHost, required),
		validation.Field(&s.SMTPPort, required, validation.By(validatePort)),
		validation.Field(&s.SMTPSecure, required, validation.By(validateBool)),
		validation.Field(&s.EmailUser, required),
		validation.Field(&s.EmailPassword, required),
		validation.Field(&s.EmailTo, required, validation.By(validateAddresses)),
		validation.Field(&s.EmailFrom, validation.By(validateAddresses)),
		validation.Field(&s.SendGroupedMail, required, validation.By(validateAlertMode)),
		validation.Field(&s.CheckInterval, validation.Required, validation.By(validateDuration(false))),
		validation.Field(&s.HTTPTimeout, validation.By(validateDuration(true))),
		validation.Field(&s.DNSDiagnose, validation.By(validateBool)),
		validation.Field(&s.AlertWorkers, validation.By(validatePositiveInt)),
		validation.Field(&s.StatusRate, is.Int, validation.By(validateNonNegativeInt)),
		validation.Field(&s.ResultLog, validation.Required),
		validation.Field(&s.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&s.SlackWebhook, is.URL),
	)
}

func (s settings) config() (Config, error) {
	port, _ := strconv.Atoi(s.SMTPPort)
	secure, _ := parseBool(s.SMTPSecure)
	mode, _ := domain.ParseAlertMode(s.SendGroupedMail)
	interval, _ := time.ParseDuration(s.CheckInterval)
	timeout, _ := time.ParseDuration(orDefault(s.HTTPTimeout, "0s"))
	dns, _ := parseBool(orDefault(s.DNSDiagnose, "true"))
	workers, _ := strconv.Atoi(orDefault(s.AlertWorkers, "1"))
	rate, _ := strconv.Atoi(orDefault(s.StatusRate, "0"))

	return Config{
		Domains: splitList(s.Domains),
		SMTP: SMTP{
			Host:     s.SMTPHost,
			Port:     port,
			Secure:   secure,
			User:     s.EmailUser,
			Password: s.EmailPassword,
			From:     orDefault(s.EmailFrom, s.EmailUser),
			To:       splitList(s.EmailTo),
		},
		AlertMode:      mode,
		Interval:       interval,
		HTTPTimeout:    timeout,
		DNSDiagnose:    dns,
		AlertWorkers:   workers,
		ResultLog:      s.ResultLog,
		LogDir:         orDefault(s.LogDir, "logs"),
		LogLevel:       orDefault(s.LogLevel, "info"),
		DatabaseURL:    s.DatabaseURL,
		StatusAddr:     s.StatusAddr,
		StatusAPIKeys:  splitList(s.StatusAPIKeys),
		StatusRate:     rate,
		AllowedOrigins: splitList(orDefault(s.AllowedOrigins, "*")),
		SlackWebhook:   s.SlackWebhook,
	}, nil
}

func validateDomains(value interface{}) error {
	raw, _ := value.(string)
	list := splitList(raw)
	if len(list) == 0 {
		return validation.NewError("validation_no_domains", "must list at least one URL")
	}
	return nil
}

// DomainProblems lists entries that cannot be probed as absolute http(s)
// URLs. They are kept in Domains and fail as network errors every cycle.
func (c Config) DomainProblems() []error {
	var out []error
	for _, d := range c.Domains {
		if err := checkDomain(d); err != nil {
			out = append(out, err)
		}
	}
	return out
}

func checkDomain(d string) error {
	u, err := url.Parse(d)
	switch {
	case err != nil:
		return fmt.Errorf("%q is not a valid URL: %w", d, err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("%q must use http or https scheme", d)
	case u.Host == "":
		return fmt.Errorf("%q must have a host", d)
	}
	return nil
}

func validatePort(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	p, err := strconv.Atoi(raw)
	if err != nil || p < 1 || p > 65535 {
		return validation.NewError("validation_invalid_port", "must be a port number between 1 and 65535")
	}
	return nil
}

func validateBool(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if _, err := parseBool(raw); err != nil {
		return validation.NewError("validation_invalid_bool", "must be 0/1 or true/false")
	}
	return nil
}

func validateAlertMode(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if _, err := domain.ParseAlertMode(raw); err != nil {
		return validation.NewError("validation_invalid_alert_mode", "must be 1 (grouped) or 0 (one mail per failure)")
	}
	return nil
}

func validateAddresses(value interface{}) error {
	raw, _ := value.(string)
	for _, addr := range splitList(raw) {
		if err := is.EmailFormat.Validate(addr); err != nil {
			return validation.NewError("validation_invalid_email", fmt.Sprintf("%q is not an email address", addr))
		}
	}
	return nil
}

func validateDuration(allowZero bool) validation.RuleFunc {
	return func(value interface{}) error {
		raw, _ := value.(string)
		if raw == "" {
			return nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 30s, 5m)")
		}
		if d < 0 || (d == 0 && !allowZero) {
			return validation.NewError("validation_invalid_duration", "must be positive")
		}
		return nil
	}
}

func validatePositiveInt(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err != nil || n < 1 {
		return validation.NewError("validation_invalid_number", "must be a positive integer")
	}
	return nil
}

func validateNonNegativeInt(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err != nil || n < 0 {
		return validation.NewError("validation_invalid_number", "must be zero or a positive integer")
	}
	return nil
}

// parseBool accepts any integer (non-zero is true) as well as the strconv forms.
func parseBool(raw string) (bool, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n != 0, nil
	}
	return strconv.ParseBool(strings.ToLower(raw))
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
