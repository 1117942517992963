package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TenantParam is the query parameter (and body field) scoping every request.
const TenantParam = "uniquePartnerId"

// Server exposes a RecordStore over the question REST API.
type Server struct {
	Store   ports.RecordStore
	Events  *Events
	logger  *slog.Logger
	version string
	metrics http.Handler
	routes  []route
	origins []string

	conversations ports.ConversationReader
}

type route struct {
	pattern string
	handler http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithConversations overrides the reader behind GET /api/conversations.
// By default the store is used when it implements ports.ConversationReader.
func WithConversations(r ports.ConversationReader) Option {
	return func(s *Server) {
		s.conversations = r
	}
}

// WithAllowedOrigins restricts cross-origin requests to origins. Without it
// any origin is allowed.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithRoute mounts h on pattern next to the API routes.
func WithRoute(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.routes = append(s.routes, route{pattern: pattern, handler: h})
	}
}

// NewServer creates a Server for store.
func NewServer(store ports.RecordStore, opts ...Option) *Server {
	s := &Server{
		Store:   store,
		Events:  NewEvents(),
		logger:  logging.NewNop(),
		version: "dev",
	}
	if r, ok := store.(ports.ConversationReader); ok {
		s.conversations = r
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for store.
func NewHandler(store ports.RecordStore, opts ...Option) http.Handler {
	return NewServer(store, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	for _, rt := range s.routes {
		r.Handle(rt.pattern, rt.handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/questions", func(r chi.Router) {
			r.Get("/", s.ListQuestions)
			r.Post("/", s.CreateQuestion)
			r.Get("/start", s.GetFirstQuestion)
			r.Get("/{id}", s.GetQuestion)
			r.Put("/{id}", s.UpdateQuestion)
			r.Delete("/{id}", s.DeleteQuestion)
		})
		r.Get("/conversations", s.ListConversations)
		r.Post("/conversations", s.CreateConversation)
		r.Get("/events", s.SubscribeEvents)
	})
	return s.cors(r)
}

// cors answers preflight requests and tags responses for the admin UI, which
// is served from another origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		switch origin := r.Header.Get("Origin"); {
		case len(s.origins) == 0:
			h.Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(s.origins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		default:
			if r.Method == http.MethodOptions {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
		}
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListQuestions handles GET /api/questions.
func (s *Server) ListQuestions(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r, "")
	if !ok {
		return
	}
	records, err := s.Store.List(r.Context(), tenant)
	if err != nil {
		s.fail(w, "List questions", err)
		return
	}
	s.reply(w, http.StatusOK, records)
}

// GetQuestion handles GET /api/questions/{id}.
func (s *Server) GetQuestion(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r, "")
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	records, err := s.Store.List(r.Context(), tenant)
	if err != nil {
		s.fail(w, "Get question", err)
		return
	}
	for _, rec := range records {
		if rec.ID == id {
			s.reply(w, http.StatusOK, rec)
			return
		}
	}
	s.fail(w, "Get question", domain.ErrRecordNotFound)
}

// GetFirstQuestion handles GET /api/questions/start.
func (s *Server) GetFirstQuestion(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r, "")
	if !ok {
		return
	}
	records, err := s.Store.List(r.Context(), tenant)
	if err != nil {
		s.fail(w, "Get first question", err)
		return
	}
	for _, rec := range records {
		if rec.IsFirst {
			s.reply(w, http.StatusOK, rec)
			return
		}
	}
	s.fail(w, "Get first question", domain.ErrRecordNotFound)
}

// CreateQuestion handles POST /api/questions.
func (s *Server) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var rec domain.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CreateQuestion: Invalid request body", "err", err)
		return
	}
	tenant, ok := s.tenant(w, r, rec.TenantID)
	if !ok {
		return
	}
	out, err := s.Store.Create(r.Context(), tenant, rec)
	if err != nil {
		s.fail(w, "Create question", err)
		return
	}
	s.Events.Publish(QuestionEvent{Type: EventQuestionCreated, ID: out.ID, Tenant: tenant})
	s.reply(w, http.StatusCreated, out)
}

// UpdateQuestion handles PUT /api/questions/{id}.
func (s *Server) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("UpdateQuestion: Invalid request body", "err", err)
		return
	}
	tenant, ok := s.tenant(w, r, body.Tenant)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	out, err := s.Store.Update(r.Context(), tenant, id, body.Patch)
	if err != nil {
		s.fail(w, "Update question", err)
		return
	}
	s.Events.Publish(QuestionEvent{Type: EventQuestionUpdated, ID: id, Tenant: tenant})
	s.reply(w, http.StatusOK, out)
}

// updateRequest is the PUT body: a patch plus the optional tenant field.
// RecordPatch decodes itself, so the two are read separately.
type updateRequest struct {
	Patch  domain.RecordPatch
	Tenant string
}

func (u *updateRequest) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &u.Patch); err != nil {
		return err
	}
	var scope struct {
		Tenant string `json:"uniquePartnerId"`
	}
	if err := json.Unmarshal(data, &scope); err != nil {
		return err
	}
	u.Tenant = scope.Tenant
	return nil
}

// DeleteQuestion handles DELETE /api/questions/{id}.
func (s *Server) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r, "")
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.Store.Delete(r.Context(), tenant, id); err != nil {
		s.fail(w, "Delete question", err)
		return
	}
	s.Events.Publish(QuestionEvent{Type: EventQuestionDeleted, ID: id, Tenant: tenant})
	s.reply(w, http.StatusOK, map[string]string{"message": "Question deleted", "_id": id})
}

// ListConversations handles GET /api/conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	reader := s.conversations
	if reader == nil {
		s.fail(w, "List conversations", domain.ErrUnsupported)
		return
	}
	tenant, ok := s.tenant(w, r, "")
	if !ok {
		return
	}
	convs, err := reader.ListConversations(r.Context(), tenant)
	if err != nil {
		s.fail(w, "List conversations", err)
		return
	}
	s.reply(w, http.StatusOK, convs)
}

// CreateConversation handles POST /api/conversations.
func (s *Server) CreateConversation(w http.ResponseWriter, r *http.Request) {
	writer, ok := s.Store.(ports.ConversationWriter)
	if !ok {
		s.fail(w, "Create conversation", domain.ErrUnsupported)
		return
	}
	var body struct {
		domain.Conversation
		Tenant string `json:"uniquePartnerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	tenant, ok := s.tenant(w, r, body.Tenant)
	if !ok {
		return
	}
	out, err := writer.AddConversation(r.Context(), tenant, body.Conversation)
	if err != nil {
		s.fail(w, "Create conversation", err)
		return
	}
	s.reply(w, http.StatusCreated, out)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.reply(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.reply(w, http.StatusOK, map[string]string{
		"app":     "flowcanvas-http",
		"version": strings.TrimSpace(s.version),
	})
}

// SubscribeEvents handles GET /api/events (SSE). Every question mutation made
// through this server is pushed to subscribers of the same tenant.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	tenant, ok := s.tenant(w, r, "")
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, unsubscribe := s.Events.Subscribe(tenant)
	defer unsubscribe()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "tenant", tenant)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("event encode failed", "type", ev.Type, "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

// tenant resolves the scope from the query string, falling back to the body.
func (s *Server) tenant(w http.ResponseWriter, r *http.Request, fromBody string) (string, bool) {
	t := r.URL.Query().Get(TenantParam)
	if t == "" {
		t = fromBody
	}
	if t == "" {
		http.Error(w, TenantParam+" is required", http.StatusBadRequest)
		return "", false
	}
	return t, true
}

func (s *Server) reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		http.Error(w, fmt.Sprintf("%s: %v", op, err), http.StatusNotFound)
	case errors.Is(err, domain.ErrUnsupported):
		http.Error(w, fmt.Sprintf("%s: %v", op, err), http.StatusNotImplemented)
	default:
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
		s.logger.Error(op+" failed", "err", err)
	}
}
