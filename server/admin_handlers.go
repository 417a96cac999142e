package server

import (
	"net/http"
)

// AdminStats is the body of GET /api/admin/stats
type AdminStats struct {
	Users          int `json:"users"`
	ActiveSessions int `json:"activeSessions"`
}

// AdminStatsHandler reports account and session counts
func (s *Server) AdminStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := s.repos.Users.Count()
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to count users")
			writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}
		writeJSON(w, http.StatusOK, AdminStats{
			Users:          count,
			ActiveSessions: s.refresh.Active(),
		})
	}
}
