// Package stream adapts pipeline events onto the wire: one long-lived
// response per run, frames encoded by pkg/stream.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"TradeScope/internal/domain/models"
	pkgstream "TradeScope/pkg/stream"
)

// Emitter serializes events for one run onto a single observer connection.
// Emissions are mutually exclusive, so events for a fixed entity keep their
// start-then-terminal order while different entities interleave freely.
// After the observer disconnects no further event is written.
type Emitter struct {
	ctx context.Context
	w   io.Writer
	mu  sync.Mutex

	flush func()
}

// NewEmitter wraps a response writer. The context is the observer connection's:
// once it is done the emitter drops everything silently.
func NewEmitter(ctx context.Context, w io.Writer) *Emitter {
	e := &Emitter{ctx: ctx, w: w}
	if f, ok := w.(http.Flusher); ok {
		e.flush = f.Flush
	}
	return e
}

// Emit writes one frame. Returns an error when the observer is gone so callers
// stop launching new work; in-flight work may finish but emits nothing more.
func (e *Emitter) Emit(ev models.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ctx.Err(); err != nil {
		return fmt.Errorf("stream: observer disconnected: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("stream: marshal event %s: %w", ev.Kind, err)
	}
	if _, err := e.w.Write(pkgstream.Encode(body)); err != nil {
		return fmt.Errorf("stream: write frame: %w", err)
	}
	if e.flush != nil {
		e.flush()
	}
	return nil
}
