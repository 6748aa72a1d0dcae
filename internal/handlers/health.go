package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

// Features lists the optional capabilities the server started with.
type Features struct {
	LLM     bool `json:"llm"`
	OCR     bool `json:"ocr"`
	History bool `json:"history"`
	Archive bool `json:"archive"`
}

type healthResponse struct {
	Status   string   `json:"status"`
	Service  string   `json:"service"`
	Features Features `json:"features"`
}

func Health(features Features, logger *utils.Logger) http.HandlerFunc {
	body := healthResponse{
		Status:   "healthy",
		Service:  "lab-report-summarizer",
		Features: features,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, logger, http.StatusOK, body)
	}
}
