package stream

import (
	"fmt"
	"net/http"
	"strings"
)

// SSEHandler streams snapshots as Server-Sent Events. The event name is the
// session status; ?status=success,failure limits which ones are sent.
type SSEHandler struct {
	hub *Hub
}

// NewSSEHandler creates a handler reading from hub.
func NewSSEHandler(hub *Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// ServeHTTP handles SSE connections.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	filter := make(map[string]bool)
	if statuses := r.URL.Query().Get("status"); statuses != "" {
		for _, s := range strings.Split(statuses, ",") {
			filter[strings.TrimSpace(s)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, last := h.hub.subscribe()
	defer h.hub.unsubscribe(ch)

	write := func(ev Event) {
		if len(filter) > 0 && !filter[string(ev.Status)] {
			return
		}
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
		_, _ = fmt.Fprintf(w, "event: %s\n", ev.Status)
		_, _ = fmt.Fprintf(w, "data: %s\n\n", ev.Data)
		flusher.Flush()
	}

	if last != nil {
		write(*last)
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			write(ev)
		}
	}
}
