package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/karaoke/internal/events"
)

// EventStream forwards change notifications to browsers as server-sent events.
//
// Each notification is one "change" event whose data is the changed kind.
// A comment line is sent every Heartbeat to keep proxies from closing the stream.
type EventStream struct {
	bus       *events.Bus
	logger    *log.Logger
	Heartbeat time.Duration
}

// NewEventStream creates an [EventStream] over bus.
func NewEventStream(bus *events.Bus, logger *log.Logger) *EventStream {
	if bus == nil {
		bus = events.New()
	}
	return &EventStream{bus: bus, logger: logger, Heartbeat: 15 * time.Second}
}

// Routes returns the HTTP routes this handler serves.
func (s *EventStream) Routes() []string {
	return []string{"GET /api/events"}
}

// ServeHTTP streams until the client goes away.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	changes, unsubscribe := s.bus.Channel(16)
	defer unsubscribe()

	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		s.logger.Warn("event stream cannot flush", "error", err)
		return
	}

	ticker := time.NewTicker(s.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case kind := <-changes:
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", kind)
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
