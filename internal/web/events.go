package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/hoover/internal/core"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// eventStream writes Server-Sent Events for one request. Cleaning reports
// progress synchronously from the handler goroutine, so no locking is needed.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	lastID  int
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// newEventStream sends the stream headers. It fails before anything is
// written when w cannot flush.
func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher}, nil
}

// progress is a core.ProgressCallback. The event ID is a running count so a
// client can tell events apart across phases.
func (e *eventStream) progress(p core.Progress) {
	e.lastID++
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	fmt.Fprintf(e.w, "id: %d\nevent: progress\ndata: %s\n\n", e.lastID, data)
	e.flusher.Flush()
}

// send writes one named event carrying v as JSON.
func (e *eventStream) send(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte("{}")
	}
	fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data)
	e.flusher.Flush()
}

// fail ends the stream with the user-facing form of err.
func (e *eventStream) fail(err error) {
	msg := core.MapError(err)
	e.send("error", ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
