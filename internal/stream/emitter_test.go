package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"TradeScope/internal/domain/models"
)

func TestEmitterWritesFrames(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(context.Background(), &buf)

	ev := models.Event{
		Kind: models.EventStepComplete,
		Time: time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		Name: "price_history",
		Payload: map[string]interface{}{
			"bars": 120,
		},
	}
	if err := e.Emit(ev); err != nil {
		t.Fatalf("emit: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "data: ") {
		t.Fatalf("missing frame marker: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Fatalf("missing frame terminator: %q", out)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(out, "data: "))), &obj); err != nil {
		t.Fatalf("frame body is not a JSON object: %v", err)
	}
	if obj["type"] != "step_complete" || obj["name"] != "price_history" {
		t.Fatalf("unexpected frame body %v", obj)
	}
	if obj["bars"] != float64(120) {
		t.Fatalf("payload fields should be spread into the object, got %v", obj)
	}
}

func TestEmitterStopsAfterDisconnect(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	e := NewEmitter(ctx, &buf)
	cancel()

	if err := e.Emit(models.Event{Kind: models.EventDone, Time: time.Now()}); err == nil {
		t.Fatalf("expected error after observer disconnect")
	}
	if buf.Len() != 0 {
		t.Fatalf("no bytes may be written after disconnect, got %q", buf.String())
	}
}

func TestEmitterReservedKeysWin(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(context.Background(), &buf)

	ev := models.Event{
		Kind:    models.EventStepComplete,
		Time:    time.Now().UTC(),
		Name:    "quote",
		Payload: map[string]interface{}{"type": "spoofed", "name": "spoofed", "price": 42.0},
	}
	if err := e.Emit(ev); err != nil {
		t.Fatalf("emit: %v", err)
	}

	var obj map[string]interface{}
	body := strings.TrimSpace(strings.TrimPrefix(buf.String(), "data: "))
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		t.Fatalf("parse frame: %v", err)
	}
	if obj["type"] != "step_complete" || obj["name"] != "quote" {
		t.Fatalf("reserved keys must win over payload fields: %v", obj)
	}
	if obj["price"] != 42.0 {
		t.Fatalf("payload field lost: %v", obj)
	}
}
