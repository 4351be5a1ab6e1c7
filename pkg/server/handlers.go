package server

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/warren/pkg/buildinfo"
	"github.com/matzehuels/warren/pkg/config"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
	"github.com/matzehuels/warren/pkg/pipeline"
	"github.com/matzehuels/warren/pkg/render"
	"github.com/matzehuels/warren/pkg/store"
)

// ArrangeResponse is the body of POST /v1/arrange.
type ArrangeResponse struct {
	ID       string         `json:"id,omitempty"`
	Complete bool           `json:"complete"`
	Cached   bool           `json:"cached"`
	Layout   *layout.Layout `json:"layout"`
	Error    *ErrorBody     `json:"error,omitempty"`
}

// ListResponse is the body of GET /v1/layouts.
type ListResponse struct {
	Layouts []store.Summary `json:"layouts"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read configuration"))
		return
	}
	cfg, err := config.Parse(data, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	opts, err := s.arrangeOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	// The layout is rendered on demand, so only the arrange stage runs here.
	l, hit, err := s.runner.ArrangeWithCacheInfo(ctx, cfg, opts)
	if err != nil && (l == nil || !errors.IsIncomplete(err)) {
		s.fail(w, r, err)
		return
	}
	resp := ArrangeResponse{Complete: l.Complete, Cached: hit, Layout: l}
	if err != nil {
		resp.Error = errorBody(err)
		s.logger.Warn("arrangement incomplete",
			"request_id", middleware.GetReqID(r.Context()),
			"seed", l.Seed,
			"code", errors.GetCode(err))
		writeJSON(w, statusFor(err), resp)
		return
	}

	if r.URL.Query().Get("save") != "false" {
		id, err := s.store.Save(r.Context(), l)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.ID = id
		w.Header().Set("Location", "/v1/layouts/"+id)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) arrangeOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	opts.Registry = s.registry
	q := r.URL.Query()
	if v := q.Get("seed"); v != "" {
		opts.Seed = v
	}
	for name, dst := range map[string]*int{
		"attempts":     &opts.Attempts,
		"max_attempts": &opts.MaxAttempts,
		"margin":       &opts.Margin,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "%s: %q is not an integer", name, v)
		}
		*dst = n
	}
	opts.Refresh = q.Get("refresh") == "true"
	return opts, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Layouts: list})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Formats: []string{format},
		Style:   q.Get("style"),
		Labels:  q.Get("labels") == "true",
	}
	if v := q.Get("cell_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "cell_size: %q is not a positive integer", v))
			return
		}
		opts.CellSize = n
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "scale: %q is not a positive number", v))
			return
		}
		opts.Scale = f
	}

	artifacts, err := s.runner.Render(r.Context(), l, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// requestFormat picks the configuration format from the query or the
// Content-Type header.
func requestFormat(r *http.Request) (string, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		switch f {
		case config.FormatTOML, config.FormatYAML, config.FormatJSON:
			return f, nil
		}
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported configuration format %q", f)
	}

	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return config.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "bad Content-Type")
	}
	switch mt {
	case "application/json":
		return config.FormatJSON, nil
	case "application/toml":
		return config.FormatTOML, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return config.FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported Content-Type %q", mt)
}

// =============================================================================
// Responses
// =============================================================================

// ErrorBody is the JSON form of an error.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

func errorBody(err error) *ErrorBody {
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	return &ErrorBody{Code: code, Message: errors.UserMessage(err)}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err)
	}
	writeJSON(w, status, errorResponse{Error: *errorBody(err)})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidStyle, errors.ErrCodeInvalidSeed, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidID:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeLayoutNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodePoolEmpty, errors.ErrCodeBranchMismatch,
		errors.ErrCodeGenerationFailed, errors.ErrCodeBudgetExhausted:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
