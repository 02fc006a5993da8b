package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	HeartbeatInterval = 30 * time.Second

	clientBufferSize = 100
)

// Start sets the streaming headers and flushes them. It reports false when
// the writer cannot stream.
func Start(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return flusher, true
}

// WriteFrame writes one unnamed event, so browsers deliver it to onmessage.
func WriteFrame(w io.Writer, flusher http.Flusher, data []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func WriteJSON(w io.Writer, flusher http.Flusher, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFrame(w, flusher, data)
}

func WriteComment(w io.Writer, flusher http.Flusher, comment string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", comment); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
