package server

import (
	"net/http"
	"time"
)

// RequestTimeout bounds one chat request end to end. On expiry the
// caller gets a 503 instead of a request left outstanding.
const RequestTimeout = 30 * time.Second

// New builds the API server: the chat endpoint and a liveness probe.
func New(addr string, handlers *Handlers) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/v1/chat", http.TimeoutHandler(
		http.HandlerFunc(handlers.HandleChat),
		RequestTimeout,
		`{"error":"request timed out"}`,
	))
	mux.HandleFunc("/health", handlers.HandleHealth)

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
