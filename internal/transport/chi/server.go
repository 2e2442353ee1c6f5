package chi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
	healthuc "github.com/kailas-cloud/vecmatch/internal/usecase/health"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest   = "bad_request"
	codeUnauthorized = "unauthorized"
	codeInternal     = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body of /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// PendingResponse is the body of /v1/profiles/{id}/pending.
type PendingResponse struct {
	ProfileID string         `json:"profile_id"`
	Items     []profile.Card `json:"items"`
}

// CandidateService is the read side the ops API exposes.
type CandidateService interface {
	Relationships(ctx context.Context, id string) (relationship.Document, error)
	Pending(ctx context.Context, id string) ([]profile.Card, error)
}

// Server serves the operational HTTP surface of the worker.
type Server struct {
	candidates CandidateService
	health     *healthuc.Service
	logger     *zap.Logger
}

// NewServer creates the ops server. candidates may be nil, then /v1 is not mounted.
func NewServer(candidates CandidateService, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{candidates: candidates, health: health, logger: logger}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware("/healthz", "/readyz", "/metrics"))

	r.Get("/healthz", s.Healthz)
	r.Get("/readyz", s.Readyz)
	r.Get("/metrics", s.Metrics)

	if s.candidates != nil {
		r.Route("/v1/profiles/{id}", func(r chi.Router) {
			r.Get("/relationships", s.GetRelationships)
			r.Get("/pending", s.GetPending)
		})
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	return r
}

// Healthz reports liveness: the process is up and serving.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: string(healthuc.Healthy)})
}

// Readyz reports the state of the database, embedding provider and broker.
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// GetRelationships handles GET /v1/profiles/{id}/relationships.
func (s *Server) GetRelationships(w http.ResponseWriter, r *http.Request) {
	doc, err := s.candidates.Relationships(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// GetPending handles GET /v1/profiles/{id}/pending.
func (s *Server) GetPending(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cards, err := s.candidates.Pending(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PendingResponse{ProfileID: id, Items: cards})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidProfile) {
		s.logger.Warn("bad request", zap.Error(err))
		writeError(w, http.StatusBadRequest, codeBadRequest, domain.ErrInvalidProfile.Error())
		return
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
