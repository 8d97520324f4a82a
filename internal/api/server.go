package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/availability"
	"storefront/internal/repository"
	"storefront/internal/schedule"
	"storefront/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ScheduleStore is the schedule state the admin endpoints read and change.
type ScheduleStore interface {
	Update(ctx context.Context, category string, fn func(*schedule.CategorySchedule) error) error
	SetCategoryEnabled(ctx context.Context, category string, enabled bool) error
	SetDay(ctx context.Context, category string, day schedule.Weekday, enabled bool) error
	SetShiftEnabled(ctx context.Context, category string, n int, enabled bool) error
	SetShiftLabel(ctx context.Context, category string, n int, label string) error
	PutSchedule(ctx context.Context, category string, raw schedule.RawCategorySchedule) error
	SetGlobalHours(ctx context.Context, hours schedule.GlobalHours) error
	Refresh(ctx context.Context) error
	Record() store.ConfigRecord
	Schedules() schedule.ScheduleMap
	Revision() string
	RealtimeActive() bool
}

// RevisionLister lists stored configuration revisions, newest first.
type RevisionLister interface {
	ListRevisions(ctx context.Context, limit int) ([]repository.Revision, error)
}

// Options configures an HTTPServer.
type Options struct {
	Port int
	// APIKey guards the admin endpoints. Admin endpoints are disabled when empty.
	APIKey string
	// AdminWritesPerMinute limits admin requests across all clients.
	AdminWritesPerMinute int
	Revisions            RevisionLister
}

// HTTPServer serves the storefront availability API.
type HTTPServer struct {
	server    *http.Server
	service   *availability.Service
	store     ScheduleStore
	revisions RevisionLister
	apiKey    string
	limiter   *rate.Limiter
	logger    *zerolog.Logger
}

func NewHTTPServer(opts Options, service *availability.Service, st ScheduleStore, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	perMinute := opts.AdminWritesPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	s := &HTTPServer{
		service:   service,
		store:     st,
		revisions: opts.Revisions,
		apiKey:    opts.APIKey,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/categories/available", s.handleAvailableCategories)
	mux.HandleFunc("GET /api/categories/{category}", s.handleCategory)
	mux.HandleFunc("POST /api/cart/window", s.handleCartWindow)
	mux.HandleFunc("GET /api/schedules", s.handleSchedules)

	mux.Handle("PUT /api/admin/schedules/{category}", s.admin(s.handlePutSchedule))
	mux.Handle("PUT /api/admin/schedules/{category}/enabled", s.admin(s.handleSetEnabled))
	mux.Handle("PUT /api/admin/schedules/{category}/days/{day}", s.admin(s.handleSetDay))
	mux.Handle("PUT /api/admin/schedules/{category}/shifts/{shift}/enabled", s.admin(s.handleSetShiftEnabled))
	mux.Handle("PUT /api/admin/schedules/{category}/shifts/{shift}/label", s.admin(s.handleSetShiftLabel))
	mux.Handle("PUT /api/admin/schedules/{category}/shifts/{shift}/times", s.admin(s.handleSetShiftTimes))
	mux.Handle("PUT /api/admin/hours", s.admin(s.handleSetHours))
	mux.Handle("POST /api/admin/refresh", s.admin(s.handleRefresh))
	mux.Handle("GET /api/admin/revisions", s.admin(s.handleRevisions))
	mux.Handle("GET /api/admin/schedules/export", s.admin(s.handleExport))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("API server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// admin guards h with the API key and the admin rate limit.
func (s *HTTPServer) admin(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			writeError(w, http.StatusForbidden, "admin api disabled")
			return
		}
		key := r.Header.Get("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		if !s.limiter.Allow() {
			s.logger.Warn().Str("path", r.URL.Path).Msg("admin rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		h(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps schedule and store errors to a response.
func (s *HTTPServer) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, schedule.ErrInvalidClock),
		errors.Is(err, schedule.ErrUnknownDay),
		errors.Is(err, schedule.ErrUnknownShift),
		errors.Is(err, schedule.ErrUnknownField):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("schedule write failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// maxBodyBytes caps request bodies on the JSON endpoints.
const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
