// Package http exposes the budget tracker as a JSON API: entry and deposit
// mutations, calendar projections, and paycheck users with pay calculations.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bigbudget/internal/calendar"
	"bigbudget/internal/payroll"
	"bigbudget/internal/services"
)

type Server struct {
	http.Server
	budget      *services.BudgetService
	aggregator  *calendar.Aggregator
	users       *payroll.Users
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, budget *services.BudgetService, aggregator *calendar.Aggregator, users *payroll.Users) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		budget:      budget,
		aggregator:  aggregator,
		users:       users,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/entries", s.withMiddleware(s.handleCreateEntry))
	mux.HandleFunc("PUT /api/entries/{id}", s.withMiddleware(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/entries/{id}", s.withMiddleware(s.handleDeleteEntry))
	mux.HandleFunc("POST /api/entries/{id}/toggle-paid", s.withMiddleware(s.handleTogglePaid))

	mux.HandleFunc("POST /api/deposits", s.withMiddleware(s.handleCreateDeposit))
	mux.HandleFunc("DELETE /api/deposits/{id}", s.withMiddleware(s.handleDeleteDeposit))

	mux.HandleFunc("PUT /api/profile", s.withMiddleware(s.handleSetProfile))

	mux.HandleFunc("GET /api/calendar/day", s.withMiddleware(s.handleCalendarDay))
	mux.HandleFunc("GET /api/calendar/upcoming", s.withMiddleware(s.handleUpcoming))
	mux.HandleFunc("GET /api/calendar/month", s.withMiddleware(s.handleMonthOverview))
	mux.HandleFunc("GET /api/calendar/entries", s.withMiddleware(s.handleMonthEntries))
	mux.HandleFunc("GET /api/calendar/checklist", s.withMiddleware(s.handleChecklist))

	mux.HandleFunc("GET /api/users", s.withMiddleware(s.handleListUsers))
	mux.HandleFunc("POST /api/users", s.withMiddleware(s.handleCreateUser))
	mux.HandleFunc("GET /api/users/{id}", s.withMiddleware(s.handleGetUser))
	mux.HandleFunc("PUT /api/users/{id}", s.withMiddleware(s.handleUpdateUser))
	mux.HandleFunc("DELETE /api/users/{id}", s.withMiddleware(s.handleDeleteUser))
	mux.HandleFunc("POST /api/users/{id}/calculate", s.withMiddleware(s.handleCalculate))

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
