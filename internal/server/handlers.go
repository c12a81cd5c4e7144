package server

import (
	"encoding/json"
	"log"
	"net/http"

	"newsrag/internal/domain"
)

// Answerer is the query-engine seam the server delegates to.
type Answerer interface {
	Answer(question string) (domain.Answer, error)
}

// StatsFunc reports ingestion progress for the health probe.
type StatsFunc func() domain.IngestStats

type Handlers struct {
	answerer Answerer
	stats    StatsFunc
	logger   *log.Logger
}

func NewHandlers(answerer Answerer, stats StatsFunc, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{
		answerer: answerer,
		stats:    stats,
		logger:   logger,
	}
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Answer     string             `json:"answer"`
	References []domain.Reference `json:"references"`
	Metadata   chatMetadata       `json:"metadata"`
}

type chatMetadata struct {
	RetrievedDocs int `json:"retrieved_docs"`
}

func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing prompt"})
		return
	}

	answer, err := h.answerer.Answer(req.Prompt)
	if err != nil {
		h.logger.Printf("chat: answering failed: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to answer question"})
		return
	}

	references := answer.References
	if references == nil {
		references = []domain.Reference{}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:     answer.Text,
		References: references,
		Metadata:   chatMetadata{RetrievedDocs: answer.RetrievedDocs},
	})
}

type healthResponse struct {
	Status        string `json:"status"`
	IndexedChunks int    `json:"indexed_chunks"`
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.stats != nil {
		resp.IndexedChunks = h.stats().Chunks
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
