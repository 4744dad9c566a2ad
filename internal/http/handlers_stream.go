package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tracker/internal/auth"
	"tracker/internal/log"
)

const streamHeartbeat = 15 * time.Second

// handleStream serves the live snapshot feed over server-sent events. One
// connection is one subscription; closing the connection releases it. The
// first event is the current snapshot, then a replacement arrives on every
// change. Store failures are sent as explicit error events so clients can
// tell them apart from an empty result.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorStatus(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, cancel := s.hub.Subscribe(r.Context(), user.Email)
	defer cancel()

	s.logger.InfoContext(r.Context(), "Stream opened", log.FieldOwner, user.Email)

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.InfoContext(r.Context(), "Stream closed", log.FieldOwner, user.Email)
			return

		case u, open := <-updates:
			if !open {
				return
			}
			if u.Err != nil {
				fmt.Fprint(w, "event: error\ndata: {\"error\":\"snapshot unavailable\"}\n\n")
				flusher.Flush()
				continue
			}
			data, err := json.Marshal(u.Snapshot)
			if err != nil {
				s.logger.ErrorContext(r.Context(), "Snapshot marshal failed",
					log.FieldOwner, user.Email,
					log.FieldError, err)
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
