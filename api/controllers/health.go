package controllers

import (
	"net/http"

	"github.com/swiftride/users-backend/api/responses"
	"github.com/swiftride/users-backend/pkg/config"
)

// Health reports process liveness.
func Health(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SwiftRide-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
