package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/studyquest/backend/internal/models"
)

type Handler struct {
	aggregator *Aggregator
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

// Reports serves stored daily reports to admins, newest first.
func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.Context().Value("admin_id").(int64); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Admin authentication required"})
		return
	}

	limit := 30
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	reports, err := h.aggregator.Reports(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get reports"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
