package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jiazengp/peekd/internal/domain/notification"
	"github.com/jiazengp/peekd/internal/domain/peek"
)

type createPeekRequest struct {
	RequesterID string `json:"requesterId"`
	TargetID    string `json:"targetId"`
}

func (s *Server) createPeek(w http.ResponseWriter, r *http.Request) {
	var req createPeekRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	requester, err := uuid.Parse(req.RequesterID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requesterId")
		return
	}
	target, err := uuid.Parse(req.TargetID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid targetId")
		return
	}

	created, err := s.engine.RequestPeek(r.Context(), requester, target)
	if err != nil {
		respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) getPeek(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requestId")
		return
	}
	req, err := s.engine.GetRequest(id)
	if err != nil {
		respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

type respondPeekRequest struct {
	ActorID  string `json:"actorId"`
	Decision string `json:"decision"`
}

func (s *Server) respondPeek(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requestId")
		return
	}
	var req respondPeekRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, err := uuid.Parse(req.ActorID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid actorId")
		return
	}
	var decision peek.Decision
	switch req.Decision {
	case string(peek.DecisionAccept):
		decision = peek.DecisionAccept
	case string(peek.DecisionDeny):
		decision = peek.DecisionDeny
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "decision must be ACCEPT or DENY")
		return
	}

	if err := s.engine.Respond(r.Context(), id, actor, decision); err != nil {
		respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "resolved"})
}

type cancelPeekRequest struct {
	ActorID string `json:"actorId"`
}

func (s *Server) cancelPeek(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requestId")
		return
	}
	var req cancelPeekRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	actor, err := uuid.Parse(req.ActorID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid actorId")
		return
	}

	if err := s.engine.CancelRequest(r.Context(), id, actor); err != nil {
		respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "cancelled"})
}

func (s *Server) listIncomingPeeks(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	pending := s.engine.PendingFor(id)
	if pending == nil {
		pending = []*peek.Request{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": pending})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	session := s.engine.ActiveSessionFor(id)
	if session == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no active session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	if err := s.engine.StopSession(r.Context(), id); err != nil {
		respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "stopped"})
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	s.engine.HandleDisconnect(r.Context(), id)
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "cleaned"})
}

func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	participantID, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.New().String()
	}

	client := notification.NewSSEClient(clientID, participantID)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
