// Package http exposes the JSON API: auth, entry CRUD, summaries and the
// live snapshot stream.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"tracker/internal/auth"
	"tracker/internal/log"
	"tracker/internal/services"
	"tracker/internal/store"
	"tracker/internal/stream"
)

// storeTimeout bounds every store-backed handler so a stuck backend cannot
// hang a request.
const storeTimeout = 7 * time.Second

type Server struct {
	http.Server

	entries *services.EntryService
	authSvc *auth.Service
	hub     *stream.Hub
	reports store.SummaryStore
	logger  *log.Logger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer wires the routes and returns a ready-to-run server. reports may
// be nil when the daily reporting table is not configured.
func NewServer(addr string, entries *services.EntryService, authSvc *auth.Service, hub *stream.Hub, reports store.SummaryStore, logger *log.Logger) *Server {
	s := &Server{
		entries:     entries,
		authSvc:     authSvc,
		hub:         hub,
		reports:     reports,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}

	r := mux.NewRouter()
	r.Use(s.withRequestLogging)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	public := r.PathPrefix("/api").Subrouter()
	public.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	private := r.PathPrefix("/api").Subrouter()
	private.Use(s.authSvc.Middleware)
	private.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	private.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	private.HandleFunc("/entries", s.handleCreateEntry).Methods(http.MethodPost)
	private.HandleFunc("/entries", s.handleListEntries).Methods(http.MethodGet)
	private.HandleFunc("/entries/{id}", s.handleGetEntry).Methods(http.MethodGet)
	private.HandleFunc("/entries/{id}", s.handleUpdateEntry).Methods(http.MethodPut)
	private.HandleFunc("/entries/{id}", s.handleDeleteEntry).Methods(http.MethodDelete)
	private.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	private.HandleFunc("/reports/daily", s.handleDailyReport).Methods(http.MethodGet)
	private.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the listener and the rate limiter cleanup goroutine. SSE
// connections end when their request contexts are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.hub != nil {
			s.hub.Close()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestLogging tags each request with an id, applies security headers
// and rate limiting, and logs completion with status and duration.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeErrorStatus(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	})
}

type contextKey string

const requestIDKey contextKey = "request_id"

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// responseWriter captures the status code for the completion log line. SSE
// needs the flusher passthrough.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.entries.List(ctx, "readiness-probe"); err != nil {
		s.logger.ErrorContext(ctx, "Readiness check failed", log.FieldError, err)
		writeErrorStatus(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
