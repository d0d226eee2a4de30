package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/hydrocalc/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// ReadinessFunc adapts a function to ReadinessChecker.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// Calculator is the calculation API served over HTTP.
type Calculator interface {
	LandUses() []domain.LandUseEntry
	OpenChannel(ctx context.Context, g domain.ChannelGeometry) (domain.FlowResult, domain.ExportRecord, error)
	PipeNetwork(ctx context.Context, in domain.PipeNetworkInput) (domain.PipeNetworkResult, domain.ExportRecord, error)
	Stormwater(ctx context.Context, in domain.RunoffInput) (domain.RunoffResult, domain.ExportRecord, error)
	CompareLandUses(ctx context.Context, in domain.ComparisonInput) ([]domain.RunoffComparison, domain.ExportRecord, error)
	Calculate(ctx context.Context, req domain.CalculationRequest) (domain.ExportRecord, error)
}

// Server exposes the calculation API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	calc       Calculator
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /v1 calculation routes and
// /healthz, /readyz, and /metrics.
func NewServer(addr string, calc Calculator, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		calc:   calc,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/land-uses", s.handleLandUses)
	mux.HandleFunc("POST /v1/open-channel", s.handleOpenChannel)
	mux.HandleFunc("POST /v1/pipe-network", s.handlePipeNetwork)
	mux.HandleFunc("POST /v1/stormwater", s.handleStormwater)
	mux.HandleFunc("POST /v1/stormwater/compare", s.handleCompare)
	mux.HandleFunc("POST /v1/calculate", s.handleCalculate)

	s.httpServer.Handler = withRequestID(withAccessLog(mux, logger))
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleLandUses(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"soil_groups": domain.SoilGroups,
		"land_uses":   s.calc.LandUses(),
	})
}

func (s *Server) handleOpenChannel(w http.ResponseWriter, r *http.Request) {
	var g domain.ChannelGeometry
	if !decodeJSON(w, r, &g) {
		return
	}
	_, rec, err := s.calc.OpenChannel(r.Context(), g)
	s.writeRecord(w, r, rec, err)
}

func (s *Server) handlePipeNetwork(w http.ResponseWriter, r *http.Request) {
	var in domain.PipeNetworkInput
	if !decodeJSON(w, r, &in) {
		return
	}
	_, rec, err := s.calc.PipeNetwork(r.Context(), in)
	s.writeRecord(w, r, rec, err)
}

func (s *Server) handleStormwater(w http.ResponseWriter, r *http.Request) {
	var in domain.RunoffInput
	if !decodeJSON(w, r, &in) {
		return
	}
	_, rec, err := s.calc.Stormwater(r.Context(), in)
	s.writeRecord(w, r, rec, err)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var in domain.ComparisonInput
	if !decodeJSON(w, r, &in) {
		return
	}
	_, rec, err := s.calc.CompareLandUses(r.Context(), in)
	s.writeRecord(w, r, rec, err)
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req domain.CalculationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := s.calc.Calculate(r.Context(), req)
	s.writeRecord(w, r, rec, err)
}

// writeRecord renders a calculation outcome. ?download=true adds a
// Content-Disposition header with the kind's export filename.
func (s *Server) writeRecord(w http.ResponseWriter, r *http.Request, rec domain.ExportRecord, err error) {
	if err != nil {
		if domain.IsValidationError(err) {
			sharedobs.WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Kind: domain.ErrorKind(err)})
			return
		}
		s.logger.ErrorContext(r.Context(), "calculation failed", "error", err, "request_id", requestID(r))
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: domain.ErrorKind(err)})
		return
	}
	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+domain.ExportFilename(rec.Kind)+`"`)
	}
	sharedobs.WriteJSON(w, http.StatusOK, rec)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body. It writes a 400
// response and returns false when the body is not valid JSON for v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body: " + err.Error(), Kind: "MalformedRequest"})
		return false
	}
	return true
}
