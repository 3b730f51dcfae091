package httpx

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// responseSink writes pipeline responses to an http.ResponseWriter. Plain
// strings go out as text, everything else as JSON.
type responseSink struct {
	w http.ResponseWriter
}

func newSink(w http.ResponseWriter) responseSink {
	return responseSink{w: w}
}

func (s responseSink) SetCookie(c *http.Cookie) {
	http.SetCookie(s.w, c)
}

func (s responseSink) Send(status int, payload any) {
	if text, ok := payload.(string); ok {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.WriteHeader(status)
		_, _ = io.WriteString(s.w, text)
		return
	}
	writeJSON(s.w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing response", "error", err)
	}
}
