package runner

import (
	"strings"
	"sync"

	"github.com/dkoosis/scriptdeck/pkg/sanitize"
)

// Channel names the stream an OutputEvent came from.
type Channel string

const (
	Stdout Channel = "stdout"
	Stderr Channel = "stderr"
)

// OutputEvent is one sanitized block of script output.
type OutputEvent struct {
	Channel Channel `json:"type"`
	Text    string  `json:"data"`
}

// OnOutput receives events in arrival order. It is never called concurrently.
type OnOutput func(OutputEvent)

// emitter serializes every delivery to the caller and keeps the forwarded
// text for classification.
type emitter struct {
	mu        sync.Mutex
	fn        OnOutput
	stdout    strings.Builder
	forwarded strings.Builder
	// closed drops every later delivery. Set once the run is over or abandoned.
	closed bool
}

func newEmitter(fn OnOutput) *emitter {
	if fn == nil {
		fn = func(OutputEvent) {}
	}
	return &emitter{fn: fn}
}

// Stdout sanitizes raw and forwards whatever is left.
func (e *emitter) Stdout(raw string) {
	text := sanitize.Chunk(raw)
	if text == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.stdout.WriteString(text)
	e.fn(OutputEvent{Channel: Stdout, Text: text})
}

// Stderr sanitizes raw and forwards whatever is left as error text.
func (e *emitter) Stderr(raw string) {
	text := sanitize.Chunk(raw)
	if text == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.forwarded.WriteString(text)
	e.fn(OutputEvent{Channel: Stderr, Text: text})
}

// Notice emits text on stdout as is. It is not part of the script's output.
func (e *emitter) Notice(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.fn(OutputEvent{Channel: Stdout, Text: text})
}

// close stops delivery to the callback. Text already forwarded stays readable.
func (e *emitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

func (e *emitter) Output() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stdout.String()
}

func (e *emitter) Forwarded() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.forwarded.String()
}
