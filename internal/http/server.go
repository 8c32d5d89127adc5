package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"expensetab/internal/cache"
	"expensetab/internal/log"
	"expensetab/internal/services"
)

// Server is the JSON API over an ExpenseService.
type Server struct {
	http.Server

	svc            *services.ExpenseService
	logger         *log.Logger
	events         *log.StructuredLogger
	rateLimiter    *rateLimiter
	metrics        securityMetrics
	maxUploadBytes int64
	shutdownOnce   sync.Once
}

type ServerOption func(*Server)

// WithMaxUploadBytes bounds the size of an import upload.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentHTTP)
		}
	}
}

// WithRateLimit sets how many mutating requests a client may send per
// minute.
func WithRateLimit(perMinute int) ServerOption {
	return func(s *Server) {
		s.rateLimiter.stop()
		s.rateLimiter = newRateLimiter(perMinute)
	}
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, svc *services.ExpenseService, opts ...ServerOption) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:            svc,
		logger:         log.Nop(),
		rateLimiter:    newRateLimiter(defaultRequestsPerMinute),
		maxUploadBytes: 10 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = log.NewStructuredLogger(s.logger)

	mux.HandleFunc("GET /healthz", s.withSecurityHeaders(handleHealth))
	mux.HandleFunc("GET /readyz", s.withSecurityHeaders(s.handleReady))

	routes := map[string]http.HandlerFunc{
		"GET /api/expenses":              s.handleListExpenses,
		"POST /api/expenses":             s.handleCreateExpense,
		"PUT /api/expenses/{id}":         s.handleUpdateExpense,
		"DELETE /api/expenses/{id}":      s.handleDeleteExpense,
		"POST /api/expenses/bulk-delete": s.handleBulkDelete,
		"POST /api/expenses/bulk-update": s.handleBulkUpdate,
		"GET /api/categories":            s.handleListCategories,
		"POST /api/categories":           s.handleCreateCategory,
		"DELETE /api/categories/{id}":    s.handleDeleteCategory,
		"GET /api/budgets/{month}":       s.handleGetBudget,
		"PUT /api/budgets/{month}":       s.handleSetBudget,
		"DELETE /api/budgets/{month}":    s.handleDeleteBudget,
		"GET /api/theme":                 s.handleGetTheme,
		"POST /api/theme/toggle":         s.handleToggleTheme,
		"POST /api/import":               s.handleImport,
		"GET /api/export":                s.handleExport,
		"GET /api/template":              s.handleTemplate,
		"GET /api/analytics":             s.handleAnalytics,
		"GET /api/duplicates":            s.handleDuplicates,
		"POST /api/sheets/push":          s.handleSheetsPush,
		"POST /api/sheets/pull":          s.handleSheetsPull,
	}
	for pattern, h := range routes {
		mux.HandleFunc(pattern, s.withSecurityHeaders(h))
	}

	return s
}

// withSecurityHeaders assigns a request id, applies rate limiting to
// mutating requests, sets security headers and logs the request.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = log.NewContext(ctx, s.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		s.events.LogHTTPStart(ctx, r, clientIP)
		if detectSuspiciousRequest(r, &s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request",
				log.FieldComponent, log.ComponentSecurity,
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
		}

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, &s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
				Header("Retry-After", strconv.Itoa(max(s.rateLimiter.retryAfter(clientIP), 1))).
				Write(rw)
		} else {
			next(rw, r)
		}

		s.events.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// SecurityStats reports the security counters collected so far.
func (s *Server) SecurityStats() SecurityStats {
	return s.metrics.snapshot()
}

// Shutdown stops the rate limiter and gracefully shuts down the listener.
// It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readyResponse struct {
	Status     string        `json:"status"`
	Expenses   int           `json:"expenses"`
	Categories int           `json:"categories"`
	Events     bool          `json:"events"`
	Sheets     bool          `json:"sheets"`
	Security   SecurityStats `json:"security"`
	Reports    cache.Stats   `json:"reportCache"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Store().Snapshot()
	NewJSONResponse().Data(readyResponse{
		Status:     "ready",
		Expenses:   len(snap.Expenses),
		Categories: len(snap.Categories),
		Events:     s.svc.EventsEnabled(),
		Sheets:     s.svc.SheetsEnabled(),
		Security:   s.metrics.snapshot(),
		Reports:    s.svc.ReportCache().Stats(),
	}).Write(w)
}
