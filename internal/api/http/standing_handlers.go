package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jiazengp/peekd/internal/domain/policy"
	domainStanding "github.com/jiazengp/peekd/internal/domain/standing"
)

func parseListKind(r *http.Request) (domainStanding.ListKind, bool) {
	switch strings.ToUpper(chi.URLParam(r, "kind")) {
	case string(domainStanding.ListWhitelist):
		return domainStanding.ListWhitelist, true
	case string(domainStanding.ListBlacklist):
		return domainStanding.ListBlacklist, true
	default:
		return "", false
	}
}

func (s *Server) getStanding(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	respondJSON(w, http.StatusOK, s.standingSvc.Prefs(id))
}

type updateStandingRequest struct {
	AutoAccept       bool `json:"autoAccept"`
	RequireWhitelist bool `json:"requireWhitelist"`
	BypassDistance   bool `json:"bypassDistance"`
	BypassBusy       bool `json:"bypassBusy"`
	BypassCooldown   bool `json:"bypassCooldown"`
}

func (s *Server) updateStanding(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	var req updateStandingRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	prefs := domainStanding.Prefs{
		ParticipantID:    id,
		AutoAccept:       req.AutoAccept,
		RequireWhitelist: req.RequireWhitelist,
		BypassDistance:   req.BypassDistance,
		BypassBusy:       req.BypassBusy,
		BypassCooldown:   req.BypassCooldown,
	}
	if err := s.standingSvc.UpdatePrefs(r.Context(), prefs); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.standingSvc.Prefs(id))
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	kind, ok := parseListKind(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "kind must be WHITELIST or BLACKLIST")
		return
	}
	members := s.standingSvc.ListMembers(id, kind)
	if members == nil {
		members = []uuid.UUID{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"kind":    kind,
		"members": members,
	})
}

type listEntryRequest struct {
	MemberID string `json:"memberId"`
}

func (s *Server) addListEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	kind, ok := parseListKind(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "kind must be WHITELIST or BLACKLIST")
		return
	}
	var req listEntryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	member, err := uuid.Parse(req.MemberID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid memberId")
		return
	}
	if member == id {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "cannot list yourself")
		return
	}
	if err := s.standingSvc.AddToList(r.Context(), id, member, kind); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "added"})
}

func (s *Server) removeListEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	kind, ok := parseListKind(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "kind must be WHITELIST or BLACKLIST")
		return
	}
	member, err := parseUUIDParam(r, "memberId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid memberId")
		return
	}
	if err := s.standingSvc.RemoveFromList(r.Context(), id, member, kind); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "removed"})
}

type presenceRequest struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Dimension string  `json:"dimension"`
}

func (s *Server) updatePresence(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	var req presenceRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Dimension == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "dimension required")
		return
	}
	s.standingSvc.UpdatePresence(id, policy.Position{
		X:         req.X,
		Y:         req.Y,
		Z:         req.Z,
		Dimension: req.Dimension,
	})
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "updated"})
}
