package handler

import "net/http"

// HandleWelcome is the root health check. It doubles as a tiny endpoint
// directory for anyone poking the API with curl.
//
// HTTP: GET /
func HandleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "Welcome to the Gardening App API!",
		"version": "v1",
		"endpoints": []string{
			"/api/v1/plants?name=<plant_name>",
			"/api/v1/auth/signup (POST)",
			"/api/v1/auth/login (POST)",
			"/api/v1/collections (GET, POST)",
			"/api/v1/forum/posts (GET, POST)",
			"/api/v1/ai/plan (POST)",
		},
	})
}
