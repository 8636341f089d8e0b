package handlers

import (
	"net/http"
	"time"

	applog "mise/internal/log"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

// Health is a readiness handler for load balancers and orchestrators. It reports
// "degraded" while the database is unreachable.
func Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: databaseStatus(r),
		Time:     time.Now().UTC(),
	}
	status := http.StatusOK
	if resp.Database == "unreachable" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	applog.Debug(r.Context(), "health check", "database", resp.Database)
	writeJSON(w, status, resp)
}

func databaseStatus(r *http.Request) string {
	if database == nil {
		return "not configured"
	}
	sqlDB, err := database.DB()
	if err != nil {
		return "unreachable"
	}
	if err := sqlDB.PingContext(r.Context()); err != nil {
		applog.Warn(r.Context(), "database ping failed", "error", err)
		return "unreachable"
	}
	return "ok"
}
