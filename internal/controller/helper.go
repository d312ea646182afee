package controller

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type envelope map[string]any

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func (c controller) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Warn("failed to write json", "error", err)
	}
}

func (c controller) writeError(w http.ResponseWriter, status int, err error) {
	c.writeJSON(w, status, envelope{"error": err.Error()})
}
