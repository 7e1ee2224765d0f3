package httpapi

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// requireOperatorKey guards operator endpoints with the X-Operator-Key
// header, compared against the configured bcrypt hash.
func (s *Server) requireOperatorKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.operatorKeyHash == "" {
			respondError(w, http.StatusForbidden, "FORBIDDEN", "operator endpoints disabled")
			return
		}
		key := r.Header.Get("X-Operator-Key")
		if key == "" {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing operator key")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(s.operatorKeyHash), []byte(key)); err != nil {
			respondError(w, http.StatusForbidden, "FORBIDDEN", "invalid operator key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		respondError(w, http.StatusConflict, "NO_CONFIG_FILE", "no config overlay file configured")
		return
	}
	s.reload()
	s.logger.Info().Str("remote", r.RemoteAddr).Msg("operator triggered config reload")
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "reloaded"})
}
