// Package http exposes the expense ledger as a JSON API.
package http

import (
	"net/http"

	"outlay/internal/auth"
	"outlay/internal/middleware/ratelimit"
	"outlay/internal/middleware/security"
	"outlay/internal/middleware/trace"
	"outlay/internal/services"
)

const sessionCookie = "outlay_session"

type Server struct {
	expenses *services.ExpenseService
	summary  *services.SummaryService
	alerts   *services.AlertGenerator
	importer *services.Importer
	auth     *auth.Service
	sessions *auth.SessionStore

	pageSize       int
	maxImportBytes int64
	authLimiter    *ratelimit.Limiter
}

type Options struct {
	PageSize       int
	MaxImportBytes int64
	// AuthRequestsPerMinute throttles login and register per client IP.
	AuthRequestsPerMinute int
}

func NewServer(
	expenses *services.ExpenseService,
	summary *services.SummaryService,
	alerts *services.AlertGenerator,
	importer *services.Importer,
	authService *auth.Service,
	sessions *auth.SessionStore,
	opts Options,
) *Server {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = 1 << 20
	}
	if opts.AuthRequestsPerMinute <= 0 {
		opts.AuthRequestsPerMinute = 20
	}
	return &Server{
		expenses:       expenses,
		summary:        summary,
		alerts:         alerts,
		importer:       importer,
		auth:           authService,
		sessions:       sessions,
		pageSize:       opts.PageSize,
		maxImportBytes: opts.MaxImportBytes,
		authLimiter:    ratelimit.NewLimiter(opts.AuthRequestsPerMinute),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.authLimiter.Middleware(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.authLimiter.Middleware(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.handleLogout)

	mux.HandleFunc("GET /api/expenses", s.withUser(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.withUser(s.handleCreateExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.withUser(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withUser(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/expenses/import", s.withUser(s.handleImportExpenses))

	mux.HandleFunc("GET /api/dashboard", s.withUser(s.handleDashboard))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	headers := security.Headers(security.DefaultHeadersConfig())
	return trace.Middleware(headers(mux))
}

// withUser resolves the session cookie and threads the user id through
// explicitly; handlers below this point never look at auth state.
func (s *Server) withUser(next func(w http.ResponseWriter, r *http.Request, userID int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		userID, ok := s.sessions.Lookup(cookie.Value)
		if !ok {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		next(w, r, userID)
	}
}
