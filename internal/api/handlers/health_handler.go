package handlers

import (
	"net/http"
	"time"

	"github.com/isdelr/tasktrack-be/internal/api/respond"
	"github.com/isdelr/tasktrack-be/internal/models"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// StatsSource exposes the most recent host resource sample.
type StatsSource interface {
	Latest() (models.SystemStats, bool)
}

// HealthHandler reports liveness.
type HealthHandler struct {
	stats StatsSource
	now   func() time.Time
}

// NewHealthHandler creates a new HealthHandler. stats may be nil.
func NewHealthHandler(stats StatsSource) *HealthHandler {
	return &HealthHandler{stats: stats, now: time.Now}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string              `json:"status"`
	Timestamp string              `json:"timestamp"`
	System    *models.SystemStats `json:"system,omitempty"`
}

// Get handles GET /health. It never touches the database.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(timestampLayout),
	}
	if h.stats != nil {
		if s, ok := h.stats.Latest(); ok {
			resp.System = &s
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}
