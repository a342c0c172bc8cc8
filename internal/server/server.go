// Package server exposes the to-do service over an HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opsboard/opsboard/internal/service"
)

type contextKey string

const scopeKey contextKey = "scope"

// Server is the opsboard HTTP server.
type Server struct {
	svc     *service.TodoService
	logger  *slog.Logger
	httpSrv *http.Server
}

// New creates a Server around the given service.
func New(svc *service.TodoService, logger *slog.Logger) *Server {
	return &Server{svc: svc, logger: logger}
}

// Router builds the chi router with all API routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.scopeMiddleware)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)

			r.Route("/{taskID}", func(r chi.Router) {
				r.Get("/", s.handleGetTask)
				r.Put("/", s.handleUpdateTask)
				r.Delete("/", s.handleDeleteTask)
				r.Post("/complete", s.handleCompleteTask)
				r.Post("/reopen", s.handleReopenTask)
				r.Post("/postpone", s.handlePostponeTask)
				r.Post("/timing", s.handleEditTiming)
				r.Get("/subtasks", s.handleListSubtasks)
				r.Post("/subtasks", s.handleCreateSubtask)
				r.Get("/assignees", s.handleListAssignees)
				r.Post("/assignees", s.handleAddAssignee)
				r.Get("/assignees/candidates", s.handleAssigneeCandidates)
				r.Delete("/assignees/{assigneeID}", s.handleRemoveAssignee)
				r.Get("/activity", s.handleActivity)
			})
		})

		r.Get("/schedule/day", s.handleDaySchedule)

		r.Get("/members", s.handleListMembers)
		r.Put("/members", s.handleUpsertMember)
		r.Put("/entity-refs", s.handleUpsertEntityRef)

		r.Route("/task-types", func(r chi.Router) {
			r.Get("/", s.handleListTaskTypes)
			r.Post("/", s.handleCreateTaskType)
			r.Delete("/{typeID}", s.handleDeleteTaskType)
		})
	})

	return r
}

// Start begins listening on addr and blocks until the listener fails
// or the server is stopped.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.logger.Info("server listening", slog.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// scopeMiddleware extracts the tenant and acting user from request
// headers. Authentication and tenant enforcement happen upstream; the
// service only requires that a tenant is named.
func (s *Server) scopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := service.Scope{
			TenantID: r.Header.Get("X-Tenant-ID"),
			UserID:   r.Header.Get("X-User-ID"),
		}
		if scope.TenantID == "" {
			writeJSONError(w, http.StatusBadRequest, "missing X-Tenant-ID header")
			return
		}
		ctx := context.WithValue(r.Context(), scopeKey, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestScope returns the scope placed on the context by the
// middleware.
func requestScope(r *http.Request) service.Scope {
	scope, _ := r.Context().Value(scopeKey).(service.Scope)
	return scope
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps a service error onto an HTTP status. Store errors
// carry "not found" in their message for missing rows; validation
// errors surface as bad requests.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		writeJSONError(w, http.StatusNotFound, msg)
	case strings.Contains(msg, "must not be empty"),
		strings.Contains(msg, "invalid"),
		strings.Contains(msg, "requires"):
		writeJSONError(w, http.StatusBadRequest, msg)
	default:
		s.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", msg))
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
