package handlers

import (
	"net/http"
	"os"
	"strings"
	"sync"
)

// version is read once from version.txt.
var (
	version     string
	versionOnce sync.Once
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ServiceVersion reads the version from version.txt, or "unknown".
func ServiceVersion() string {
	versionOnce.Do(func() {
		for _, path := range []string{"version.txt", "/app/version.txt"} {
			data, err := os.ReadFile(path)
			if err == nil {
				version = strings.TrimSpace(string(data))
				return
			}
		}
		version = "unknown"
	})
	return version
}

// Health serves GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: ServiceVersion()})
}
