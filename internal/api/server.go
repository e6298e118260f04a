// Package api exposes the resolution engine over HTTP: one-shot resolution
// plus the prefetch bucket surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"sluice/internal/media"
	"sluice/internal/registry"
)

// Resolver turns a descriptor into a stream; the orchestrator satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, desc media.Descriptor, hint registry.Hint) (*media.ResolvedStream, error)
}

// Buckets is the prefetch cache surface the API needs.
type Buckets interface {
	Items(ctx context.Context, key string) []media.Item
	ReportActiveIndex(ctx context.Context, key string, index int)
	TriggerFill(ctx context.Context, key string)
}

type Server struct {
	resolver Resolver
	buckets  Buckets
	subsLang string
	router   *http.ServeMux
}

// Response is the uniform JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewServer wires the handlers. subsLang is the preferred subtitle language
// used to order caption tracks in responses; empty disables reordering.
func NewServer(resolver Resolver, buckets Buckets, subsLang string) *Server {
	s := &Server{
		resolver: resolver,
		buckets:  buckets,
		subsLang: subsLang,
		router:   http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("POST /api/v1/resolve", s.handleResolve)
	s.router.HandleFunc("GET /api/v1/buckets/{key}", s.handleBucketItems)
	s.router.HandleFunc("POST /api/v1/buckets/{key}/active", s.handleBucketActive)
	s.router.HandleFunc("POST /api/v1/buckets/{key}/fill", s.handleBucketFill)
}

// ServeHTTP applies the global middleware chain and dispatches.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.securityHeadersMiddleware(s.router).ServeHTTP(w, r)
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, Response{Success: false, Error: message})
}
