package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/relstore"
	"github.com/aretw0/relstore/internal/codec"
	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/entity"
	"github.com/aretw0/relstore/pkg/schema"
)

// maxBody bounds request bodies; a table row is never this large.
const maxBody = 1 << 20

// Server exposes a relstore.Store as a REST API.
type Server struct {
	store    *relstore.Store
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	openapi  []byte
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves the given registry at /metrics. Without it /metrics is not routed.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for store.
func NewHandler(store *relstore.Store, opts ...Option) (http.Handler, error) {
	s := &Server{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	doc, err := BuildOpenAPI(store.Schema(), strings.TrimSpace(relstore.Version)).MarshalJSON()
	if err != nil {
		return nil, err
	}
	s.openapi = doc

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Get("/openapi.json", s.openAPI)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/tables", s.listTables)
	r.Route("/tables/{table}", func(r chi.Router) {
		r.Get("/", s.where)
		r.Post("/", s.create)
		r.Post("/validate", s.validate)
		r.Get("/{id}", s.find)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.destroy)
	})

	return r, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "relstore-http",
		"version": strings.TrimSpace(relstore.Version),
		"schema":  s.store.Schema().Name(),
	})
}

func (s *Server) openAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.openapi)
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Schema().Describe())
}

func (s *Server) where(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}

	var filter *entity.Filter
	if q := r.URL.Query(); len(q) > 0 {
		attrs, err := queryAttrs(t.Schema(), q)
		if err != nil {
			s.writeError(w, err)
			return
		}
		filter = entity.Match(attrs)
	}

	entities, err := t.Where(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entities)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	e, ok := s.readEntity(w, r)
	if !ok {
		return
	}
	delete(e, domain.IDField)

	saved, err := t.Create(r.Context(), e)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", path.Join(r.URL.Path, saved.ID()))
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	e, ok := s.readEntity(w, r)
	if !ok {
		return
	}

	errs, valid := t.Validate(e)
	if errs == nil {
		errs = domain.FieldErrors{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"valid": valid, "errors": errs})
}

func (s *Server) find(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	e, err := t.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	e, ok := s.readEntity(w, r)
	if !ok {
		return
	}
	e[domain.IDField] = chi.URLParam(r, "id")

	saved, err := t.Update(r.Context(), e)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) destroy(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	if _, err := t.Destroy(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func (s *Server) table(w http.ResponseWriter, r *http.Request) (*entity.Table, bool) {
	t, err := s.store.Table(chi.URLParam(r, "table"))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return nil, false
	}
	return t, true
}

func (s *Server) readEntity(w http.ResponseWriter, r *http.Request) (domain.Entity, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "failed to read body"})
		return nil, false
	}
	e, err := codec.DecodeEntity(data)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return nil, false
	}
	return e, true
}

// queryAttrs converts query parameters to typed match values using the declared field
// types. Undeclared keys are passed through as strings so Where can reject them.
func queryAttrs(t *schema.Table, q map[string][]string) (map[string]any, error) {
	attrs := make(map[string]any, len(q))
	for key, values := range q {
		v, err := t.ParseValue(key, values[len(values)-1])
		if err != nil {
			return nil, err
		}
		attrs[key] = v
	}
	return attrs, nil
}

type errorBody struct {
	Error  string             `json:"error"`
	Fields domain.FieldErrors `json:"fields,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Fields: domain.FieldErrorsOf(err)})
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrSchema):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := codec.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
