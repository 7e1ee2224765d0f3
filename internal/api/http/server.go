package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appEngine "github.com/jiazengp/peekd/internal/application/engine"
	appStanding "github.com/jiazengp/peekd/internal/application/standing"
	"github.com/jiazengp/peekd/internal/domain/peek"
	"github.com/jiazengp/peekd/internal/domain/policy"
	"github.com/jiazengp/peekd/internal/infrastructure/sse"
	"github.com/jiazengp/peekd/internal/obs"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine          *appEngine.Engine
	standingSvc     *appStanding.Service
	sseHub          *sse.Hub
	reload          func()
	operatorKeyHash string
	logger          zerolog.Logger
}

// NewServer creates the HTTP server. reload may be nil when no config
// overlay file is configured; the admin endpoint then reports the feature
// as unavailable.
func NewServer(
	engine *appEngine.Engine,
	standingSvc *appStanding.Service,
	sseHub *sse.Hub,
	reload func(),
	operatorKeyHash string,
	logger zerolog.Logger,
) *Server {
	return &Server{
		engine:          engine,
		standingSvc:     standingSvc,
		sseHub:          sseHub,
		reload:          reload,
		operatorKeyHash: operatorKeyHash,
		logger:          logger.With().Str("service", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(obs.Instrument)
	r.Use(rateLimit(20, 40))

	r.Get("/metrics", obs.Handler().ServeHTTP)
	r.Get("/healthz", s.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/peeks", func(r chi.Router) {
			r.Post("/", s.createPeek)
			r.Get("/{requestId}", s.getPeek)
			r.Post("/{requestId}/respond", s.respondPeek)
			r.Post("/{requestId}/cancel", s.cancelPeek)
		})

		r.Route("/participants/{participantId}", func(r chi.Router) {
			r.Get("/peeks", s.listIncomingPeeks)
			r.Get("/session", s.getSession)
			r.Delete("/session", s.stopSession)
			r.Post("/disconnect", s.disconnect)
			r.Put("/presence", s.updatePresence)

			r.Route("/standing", func(r chi.Router) {
				r.Get("/", s.getStanding)
				r.Put("/", s.updateStanding)
				r.Get("/lists/{kind}", s.listMembers)
				r.Post("/lists/{kind}", s.addListEntry)
				r.Delete("/lists/{kind}/{memberId}", s.removeListEntry)
			})
		})

		r.Get("/events/{participantId}", s.sseEndpoint)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireOperatorKey)
			r.Post("/reload", s.reloadConfig)
		})
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"active_sessions": s.engine.ActiveSessions(),
		"sse_clients":     s.sseHub.ClientCount(),
	})
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondLifecycleError maps engine errors onto the response envelope.
func respondLifecycleError(w http.ResponseWriter, err error) {
	var d *policy.Denial
	switch {
	case errors.As(err, &d):
		respondError(w, http.StatusForbidden, string(d.Reason), d.Error())
	case errors.Is(err, peek.ErrDuplicatePending):
		respondError(w, http.StatusConflict, "DUPLICATE_PENDING", err.Error())
	case errors.Is(err, peek.ErrParticipantBusy):
		respondError(w, http.StatusConflict, "PARTICIPANT_BUSY", err.Error())
	case errors.Is(err, peek.ErrNotPending):
		respondError(w, http.StatusConflict, "NOT_PENDING", err.Error())
	case errors.Is(err, peek.ErrUnauthorized):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, peek.ErrRequestNotFound), errors.Is(err, peek.ErrNoActiveSession):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
