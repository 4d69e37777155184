package api

import (
	"net/http"
	"strconv"

	"github.com/elaw611/isy-bridge/internal/audit"
)

// handleListAudit returns control events matching the query filters.
//
// GET /api/v1/audit?entity_id=...&control=RR&source=device&limit=50&offset=0
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "audit trail is not configured")
		return
	}

	query := r.URL.Query()
	filter := audit.Filter{
		EntityID: query.Get("entity_id"),
		Control:  query.Get("control"),
		Source:   query.Get("source"),
	}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("audit query failed", "error", err)
		writeInternalError(w, "audit query failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
