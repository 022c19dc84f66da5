package handlers

import (
	"net/http"

	"github.com/markdave123-py/contexta-qa/internal/models"
)

func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}
