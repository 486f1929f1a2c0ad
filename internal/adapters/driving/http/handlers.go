package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/swaggo/swag"

	_ "github.com/custodia-labs/policylens/docs" // registers the OpenAPI document
	"github.com/custodia-labs/policylens/internal/core/domain"
)

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports per-component readiness
// @Description Readiness with per-component status
type ReadyResponse struct {
	Status     string            `json:"status" example:"ready"`
	Components map[string]string `json:"components,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version      string   `json:"version" example:"1.0.0"`
	Environment  string   `json:"environment" example:"production"`
	CacheBackend string   `json:"cacheBackend" example:"redis"`
	Providers    []string `json:"providers"`
	Renderer     string   `json:"renderer,omitempty" example:"chromedp"`
}

// AnalyzeRequest is the body of POST /analyze. Either url or urls is set.
// @Description Analyze one policy URL or a batch of URLs
type AnalyzeRequest struct {
	URL        string   `json:"url,omitempty" example:"https://example.com/privacy"`
	URLs       []string `json:"urls,omitempty"`
	ForceFresh bool     `json:"forceFresh,omitempty"`
}

// BatchResponse is the response of a batch analyze
// @Description Per-URL batch results in request order
type BatchResponse struct {
	Results []domain.BatchResult `json:"results"`
}

// readyTimeout bounds each readiness ping
const readyTimeout = 2 * time.Second

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database and request log backends. A degraded cache does not fail readiness.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Components: make(map[string]string, len(s.checks))}
	status := http.StatusOK

	for name, check := range s.checks {
		if check == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		err := check.Ping(ctx)
		cancel()

		if err != nil {
			resp.Components[name] = "unavailable"
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			s.logger.Warn("readiness check failed", "component", name, "error", err)
			continue
		}
		resp.Components[name] = "ok"
	}

	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the version and the active backends
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version:      s.version,
		Environment:  string(s.environment),
		CacheBackend: s.runtime.CacheBackend(),
		Providers:    s.runtime.Providers(),
		Renderer:     s.runtime.Renderer(),
	})
}

// handleOpenAPI serves the registered OpenAPI document
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

// Policy endpoints

// handleAnalyze godoc
// @Summary      Analyze a privacy policy
// @Description  Fetches, extracts and analyzes a policy URL, or several URLs in parallel.
// @Description  A record checked within the freshness window is returned without re-analysis unless forceFresh is set.
// @Description  With urls set the response is a BatchResponse with one result per URL.
// @Tags         Policies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      AnalyzeRequest  true  "Policy URL or URLs"
// @Success      200      {object}  domain.AnalyzeResponse
// @Failure      400      {object}  ErrorResponse  "Invalid URL or request body"
// @Failure      422      {object}  ErrorResponse  "Page could not be fetched or has too little text"
// @Failure      502      {object}  ErrorResponse  "Every analysis provider failed"
// @Failure      500      {object}  ErrorResponse  "Configuration or persistence failure"
// @Router       /analyze [post]
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	base := domain.AnalyzeRequest{
		ForceFresh: req.ForceFresh,
		UserAgent:  r.UserAgent(),
		IPAddress:  clientIP(r),
	}
	if authCtx := GetAuthContext(r.Context()); authCtx != nil {
		userID := authCtx.UserID
		base.UserID = &userID
	}

	// Analysis continues after the caller disconnects so its result is still stored
	ctx := context.WithoutCancel(r.Context())

	if len(req.URLs) > 0 {
		if req.URL != "" {
			writeError(w, http.StatusBadRequest, "set either url or urls, not both")
			return
		}
		if len(req.URLs) > s.batchLimit {
			writeError(w, http.StatusBadRequest, "too many urls in one batch")
			return
		}

		reqs := make([]domain.AnalyzeRequest, len(req.URLs))
		for i, u := range req.URLs {
			reqs[i] = base
			reqs[i].URL = u
		}
		writeJSON(w, http.StatusOK, BatchResponse{Results: s.policyService.AnalyzeBatch(ctx, reqs)})
		return
	}

	base.URL = req.URL
	resp, err := s.policyService.Analyze(ctx, base)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetPolicy godoc
// @Summary      Get a policy record
// @Tags         Policies
// @Produce      json
// @Param        id   path      string  true  "Policy record ID"
// @Success      200  {object}  domain.PolicyRecord
// @Failure      404  {object}  ErrorResponse
// @Router       /policies/{id} [get]
func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := s.policyService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// handleGetPolicyByURL godoc
// @Summary      Get the latest policy record for a URL
// @Tags         Policies
// @Produce      json
// @Param        url  query     string  true  "Policy URL"
// @Success      200  {object}  domain.PolicyRecord
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /policies [get]
func (s *Server) handleGetPolicyByURL(w http.ResponseWriter, r *http.Request) {
	policy, err := s.policyService.GetByURL(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// handleGetHistory godoc
// @Summary      List policy versions
// @Description  Every stored version for the URL of the given record, newest first
// @Tags         Policies
// @Produce      json
// @Param        id   path      string  true  "Policy record ID"
// @Success      200  {array}   domain.PolicyHistoryEntry
// @Failure      404  {object}  ErrorResponse
// @Router       /policies/{id}/history [get]
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.policyService.GetHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	if history == nil {
		history = []*domain.PolicyHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// handleClassify godoc
// @Summary      Classify a page
// @Description  Reports whether a URL, with optional HTML, looks like a privacy policy
// @Tags         Policies
// @Accept       json
// @Produce      json
// @Param        request  body      domain.ClassifyRequest  true  "Page to classify"
// @Success      200      {object}  domain.Classification
// @Failure      400      {object}  ErrorResponse
// @Failure      422      {object}  ErrorResponse
// @Router       /classify [post]
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req domain.ClassifyRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.policyService.Classify(r.Context(), req)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeBody decodes a size-limited JSON body, writing a 400 on failure
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// clientIP prefers the first X-Forwarded-For hop, then the remote address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
