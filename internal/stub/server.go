// Package stub is an in-process stand-in for the backend REST API. It
// serves the same routes over in-memory state, including the authoritative
// status transitions and stock adjustments, so the client stack can be
// exercised end to end without a real deployment.
package stub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/unrolled/secure"

	"github.com/provistock/provistock/internal/users"
)

// Server is the stub backend.
type Server struct {
	state  *State
	logger *slog.Logger
	router chi.Router
}

// New constructs a Server around the given state.
func New(state *State, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{state: state, logger: logger}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(httprate.LimitByIP(300, time.Minute))
	r.Use(secureMiddleware.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Patch("/{id}", s.handleUpdateUser)
				r.Delete("/{id}", s.handleDeleteUser)
			})

			r.Route("/provinces", func(r chi.Router) {
				r.Get("/", s.handleListProvinces)
				r.Post("/", s.handleCreateProvince)
				r.Patch("/{id}", s.handleUpdateProvince)
				r.Delete("/{id}", s.handleDeleteProvince)
			})

			r.Get("/stocks", s.handleListStocks)

			r.Route("/stock-requests", func(r chi.Router) {
				r.Get("/", s.handleListRequests)
				r.Post("/", s.handleCreateRequest)
				r.Patch("/{id}", s.handleSettleRequest)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", s.handleListOrders)
				r.Post("/", s.handleCreateOrder)
				r.Get("/sent", s.handleSentOrders)
				r.Get("/received", s.handleReceivedOrders)
				r.Patch("/{id}/accept", s.orderTransition("accept"))
				r.Patch("/{id}/reject", s.orderTransition("reject"))
				r.Patch("/{id}/complete", s.orderTransition("complete"))
			})

			r.Get("/transactions", s.handleListTransactions)
		})
	})
	return r
}

type ctxKey int

const userKey ctxKey = iota

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			s.message(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.state.userForToken(header[len(prefix):])
		if !ok {
			s.message(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func currentUser(r *http.Request) users.User {
	user, _ := r.Context().Value(userKey).(users.User)
	return user
}

func newTokenValue() string {
	return uuid.NewString()
}

// respond helpers: collections go out enveloped, errors as {"message"}.

func (s *Server) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", slog.Any("error", err))
	}
}

func (s *Server) results(w http.ResponseWriter, data any) {
	s.json(w, http.StatusOK, map[string]any{"results": data})
}

func (s *Server) message(w http.ResponseWriter, status int, msg string) {
	s.json(w, status, map[string]string{"message": msg})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch err {
	case errNotFound:
		status = http.StatusNotFound
	case errBadCredentials:
		status = http.StatusUnauthorized
	case errDuplicateEmail, errDuplicateCode, errOrderNotPending, errOrderNotSale, errOrderNotAccepted, errRequestSettled:
		status = http.StatusConflict
	}
	s.message(w, status, err.Error())
}

func decodeBody(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
