package agent

import (
	"sync"
	"unicode/utf8"

	"github.com/relaykit/conduit/pkg/models"
)

// EventSink receives the emitted event stream for one request. Implementations
// (SSE framing, test collectors) must not block indefinitely; the Emitter
// does not retry a blocked send.
type EventSink interface {
	Send(models.Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(models.Event)

// Send implements EventSink.
func (f EventSinkFunc) Send(e models.Event) { f(e) }

// Emitter enforces the event-stream invariant from spec §4.8 and §8.2: once
// a terminal event (error or done) has been sent, no further events reach
// the sink for this request.
type Emitter struct {
	mu     sync.Mutex
	sink   EventSink
	closed bool
}

// NewEmitter wraps a sink with the terminal-event guarantee.
func NewEmitter(sink EventSink) *Emitter {
	return &Emitter{sink: sink}
}

// Emit sends e to the sink unless the stream has already been closed by a
// prior terminal event. Returns whether the stream is still open afterward.
func (em *Emitter) Emit(e models.Event) bool {
	em.mu.Lock()
	defer em.mu.Unlock()
	if em.closed {
		return false
	}
	em.sink.Send(e)
	if e.Terminal() {
		em.closed = true
	}
	return !em.closed
}

// Closed reports whether a terminal event has already been emitted.
func (em *Emitter) Closed() bool {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.closed
}

// StreamChunks splits text into chunks of at most size bytes (a single rune
// longer than size becomes a chunk of its own) and emits each as a chunk
// event. Chunks never split a UTF-8 rune, so their concatenation
// on the client always equals text byte-for-byte.
func StreamChunks(em *Emitter, text string, size int) {
	for len(text) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(text)
		}
		em.Emit(models.ChunkEvent(text[:cut]))
		text = text[cut:]
	}
	if text != "" {
		em.Emit(models.ChunkEvent(text))
	}
}
