package gateway

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status               string `json:"status"` // "ok" or "degraded"
	CredentialsAvailable int    `json:"credentials_available"`
	CredentialsTotal     int    `json:"credentials_total"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 while at least one credential is usable, 503 when the whole
// pool is cooling down.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status: "ok",
		}

		if g.credentials != nil {
			resp.CredentialsAvailable = g.credentials.Available()
			resp.CredentialsTotal = g.credentials.Size()
			if resp.CredentialsAvailable == 0 {
				resp.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
