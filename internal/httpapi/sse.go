package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/relaykit/conduit/pkg/models"
)

// SSEFramer implements agent.EventSink by writing each Event as a
// server-sent-event record and flushing immediately. Header/flush discipline
// is grounded on evoclaw/internal/api/chat.go's handleChatStream; the
// `event: <kind>` line is added on top of the teacher's bare `data:` framing
// so clients can dispatch without parsing the payload first.
type SSEFramer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEFramer wraps w/flusher as an event sink. The caller must have
// already written the SSE response headers and flushed them once.
func NewSSEFramer(w http.ResponseWriter, flusher http.Flusher) *SSEFramer {
	return &SSEFramer{w: w, flusher: flusher}
}

// Send implements agent.EventSink.
func (f *SSEFramer) Send(e models.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		data, _ = json.Marshal(models.ErrorEvent("failed to encode event"))
	}
	f.w.Write([]byte("event: "))
	f.w.Write([]byte(e.Kind))
	f.w.Write([]byte("\ndata: "))
	f.w.Write(data)
	f.w.Write([]byte("\n\n"))
	f.flusher.Flush()
}

// writeSSEHeader sets the response up for SSE framing and flushes the
// headers so the client's connection opens immediately, per §4.9.
func writeSSEHeader(w http.ResponseWriter) (http.Flusher, bool) {
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
