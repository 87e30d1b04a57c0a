package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Version              string  `json:"version"`
	Model                string  `json:"model"`
	UptimeSeconds        float64 `json:"uptime_seconds"`
	Jobs                 int     `json:"jobs"`
	Sessions             int     `json:"sessions"`
	CredentialsAvailable int     `json:"credentials_available"`
	CredentialsTotal     int     `json:"credentials_total"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Version:       g.version,
			Model:         g.model,
			UptimeSeconds: time.Since(g.startedAt).Truncate(time.Second).Seconds(),
		}

		if g.jobs != nil {
			if jobs, err := g.jobs.ListAll(r.Context()); err == nil {
				resp.Jobs = len(jobs)
			} else {
				g.logger.Warn("status: listing jobs failed", "error", err)
			}
		}
		if g.sessions != nil {
			resp.Sessions = g.sessions.Len()
		}
		if g.credentials != nil {
			resp.CredentialsAvailable = g.credentials.Available()
			resp.CredentialsTotal = g.credentials.Size()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
