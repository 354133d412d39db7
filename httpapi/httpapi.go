// Package httpapi exposes the parse dispatcher over HTTP. The JSON
// bodies mirror the MCP tool surface: a parse request carries file_path
// plus the option fields, and the response is the envelope itself.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/filepipe/filepipe/cache"
	"github.com/filepipe/filepipe/idgen"
	"github.com/filepipe/filepipe/kit"
	"github.com/filepipe/filepipe/parse"
)

// Server binds the dispatcher, an optional cache, and the router.
type Server struct {
	d         *parse.Dispatcher
	store     *cache.Store
	logger    *slog.Logger
	requestID idgen.Generator

	parseEndpoint kit.Endpoint
}

// New builds a Server. store may be nil to disable caching.
func New(d *parse.Dispatcher, store *cache.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		d:         d,
		store:     store,
		logger:    logger,
		requestID: idgen.Prefixed("req_", idgen.NanoID(12)),
	}
	s.parseEndpoint = kit.Chain(s.logCalls)(s.doParse)
	return s
}

// Router returns the chi router with all routes mounted.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.withRequestID)

	r.Post("/v1/parse", s.handleParse)
	r.Get("/v1/formats", s.handleFormats)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.requestID()
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithRequestID(r.Context(), id)
		ctx = kit.WithTransport(ctx, "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logCalls(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		resp, err := next(ctx, req)
		if env, ok := resp.(parse.Envelope); ok && !env.Success {
			s.logger.Debug("parse failed",
				"request_id", kit.GetRequestID(ctx),
				"transport", kit.GetTransport(ctx),
				"kind", string(env.Error.Kind))
		}
		return resp, err
	}
}

// parseRequest is the POST /v1/parse body.
type parseRequest struct {
	FilePath string `json:"file_path"`
	parse.Options
}

func (s *Server) doParse(ctx context.Context, req any) (any, error) {
	pr := req.(*parseRequest)

	if s.store == nil {
		return s.d.Parse(ctx, pr.FilePath, pr.Options), nil
	}

	// Stat failures fall through to Parse, which owns the error taxonomy.
	info, err := os.Stat(pr.FilePath)
	if err != nil || info.IsDir() {
		return s.d.Parse(ctx, pr.FilePath, pr.Options), nil
	}
	key, err := cache.Key(pr.FilePath, info, pr.Options)
	if err != nil {
		return s.d.Parse(ctx, pr.FilePath, pr.Options), nil
	}

	if env, ok, err := s.store.Get(ctx, key); err == nil && ok {
		return env, nil
	} else if err != nil {
		s.logger.Warn("cache get failed", "error", err)
	}

	env := s.d.Parse(ctx, pr.FilePath, pr.Options)
	if err := s.store.Put(ctx, key, pr.FilePath, env); err != nil {
		s.logger.Warn("cache put failed", "error", err)
	}
	return env, nil
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.FilePath == "" {
		http.Error(w, "file_path is required", http.StatusBadRequest)
		return
	}

	resp, err := s.parseEndpoint(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	env := resp.(parse.Envelope)

	status := http.StatusOK
	if !env.Success {
		status = statusForKind(env.Error.Kind)
	}
	writeJSON(w, status, env)
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	formats := s.d.Formats()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"supported_formats": formats,
		"total_formats":     len(formats),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func statusForKind(kind parse.FailKind) int {
	switch kind {
	case parse.KindNotFound:
		return http.StatusNotFound
	case parse.KindPermissionDenied:
		return http.StatusForbidden
	case parse.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case parse.KindUnsupportedFeature:
		return http.StatusBadRequest
	case parse.KindMalformedInput:
		return http.StatusUnprocessableEntity
	case parse.KindResourceExceeded:
		return http.StatusRequestEntityTooLarge
	case parse.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
