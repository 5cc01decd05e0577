package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/scheduler"
)

// StatusSource is the part of the scheduler the API reads.
type StatusSource interface {
	Status() scheduler.Status
}

type Server struct {
	Logger  *zap.Logger
	Results repo.LatestReader
	Monitor StatusSource
}

func NewServer(l *zap.Logger, results repo.LatestReader, monitor StatusSource) *Server {
	return &Server{Logger: l, Results: results, Monitor: monitor}
}

// Options configures the router's access control.
type Options struct {
	Keys           []string // empty disables key checks
	AllowedOrigins []string // empty or "*" allows any origin
	RatePerMin     int      // per client IP; 0 disables
	RateBurst      int
}

func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(opts.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(opts.RatePerMin, opts.RateBurst))
		r.Use(apimw.RequireKey(opts.Keys))
		r.Get("/status", s.handleStatus)
		r.Get("/results/latest", s.handleLatest)
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
		MaxAge:         300,
	})
}

type cycleSummary struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Checked    int              `json:"checked"`
	Failures   []domain.Failure `json:"failures"`
}

type statusResponse struct {
	State            scheduler.State  `json:"state"`
	RemainingSeconds int              `json:"remaining_seconds"`
	IntervalSeconds  int              `json:"interval_seconds"`
	AlertMode        domain.AlertMode `json:"alert_mode"`
	Domains          []string         `json:"domains"`
	Cycles           int              `json:"cycles"`
	LastCycle        *cycleSummary    `json:"last_cycle"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Monitor.Status()
	resp := statusResponse{
		State:            st.State,
		RemainingSeconds: int(st.Remaining.Round(time.Second) / time.Second),
		IntervalSeconds:  int(st.Interval / time.Second),
		AlertMode:        st.Mode,
		Domains:          st.Domains,
		Cycles:           st.Cycles,
	}
	if c := st.LastCycle; c != nil {
		resp.LastCycle = &cycleSummary{
			ID:         c.ID,
			StartedAt:  c.StartedAt,
			FinishedAt: c.FinishedAt,
			Checked:    len(c.Outcomes),
			Failures:   c.Failures,
		}
		if resp.LastCycle.Failures == nil {
			resp.LastCycle.Failures = []domain.Failure{}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Results.Latest(r.Context())
	if err != nil {
		s.Logger.Error("latest_results_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load results"})
		return
	}
	if rows == nil {
		rows = []domain.CheckOutcome{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
