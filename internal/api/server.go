// Package api exposes the search service over HTTP for service callers.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/yskale/dug/internal/search"
	"github.com/yskale/dug/internal/types"
)

// Server serves the search endpoints.
type Server struct {
	service    *search.Service
	httpServer *http.Server
}

// NewServer wires the search service into an HTTP server listening on the
// configured address.
func NewServer(service *search.Service, cfg *types.Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	s := &Server{service: service}

	requestCount, err := otel.Meter("dug/api").Int64Counter("dug.api.requests",
		metric.WithDescription("handled API requests"))
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(requestLogger)
	router.Use(requestMetrics(requestCount))

	router.Get("/health", s.handleHealth)
	router.Get("/search", s.handleSearchConcepts)
	router.Get("/search_var", s.handleSearchVariables)
	router.Get("/search_var_all", s.handleSearchVariablesUnscored)
	router.Get("/search_kg", s.handleSearchKG)
	router.Get("/search_study", s.handleSearchStudies)
	router.Get("/search_program", s.handleSearchPrograms)
	router.Get("/dump", s.handleDump)
	router.Get("/agg_data_types", s.handleAggDataTypes)

	s.httpServer = &http.Server{
		Addr:         cfg.APIListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.APIReadTimeout,
		WriteTimeout: cfg.APIWriteTimeout,
	}

	return s, nil
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	log.Printf("search API listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type contextKey string

const requestIDKey contextKey = "request_id"

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestMetrics(counter metric.Int64Counter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			counter.Add(r.Context(), 1,
				metric.WithAttributes(attribute.String("http.route", r.URL.Path)))
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		id, _ := r.Context().Value(requestIDKey).(string)
		log.Printf("%s %s (%s) completed in %v", r.Method, r.URL.Path, id, time.Since(start))
	})
}
