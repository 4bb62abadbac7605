package stream

import (
	"bytes"
	"testing"
)

func TestEncode(t *testing.T) {
	got := Encode([]byte(`{"type":"done"}`))
	want := []byte("data: {\"type\":\"done\"}\n\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("unexpected frame %q", got)
	}
}

func TestDecoderSingleFrame(t *testing.T) {
	var d Decoder
	frames, err := d.Feed([]byte("data: {\"type\":\"plan\"}\n\n"))
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if string(frames[0]) != `{"type":"plan"}` {
		t.Fatalf("unexpected body %q", frames[0])
	}
}

func TestDecoderPartialAcrossFeeds(t *testing.T) {
	var d Decoder
	frames, err := d.Feed([]byte("data: {\"type\":"))
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("partial frame surfaced early: %q", frames)
	}
	if d.Pending() == 0 {
		t.Fatalf("expected buffered bytes")
	}

	frames, err = d.Feed([]byte("\"step_start\",\"name\":\"quote\"}\n\ndata: {\"type\":\"done\"}\n\n"))
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if string(frames[0]) != `{"type":"step_start","name":"quote"}` {
		t.Fatalf("unexpected first body %q", frames[0])
	}
	if string(frames[1]) != `{"type":"done"}` {
		t.Fatalf("unexpected second body %q", frames[1])
	}
	if d.Pending() != 0 {
		t.Fatalf("expected drained buffer, %d bytes left", d.Pending())
	}
}

func TestDecoderSkipsKeepAliveGaps(t *testing.T) {
	var d Decoder
	frames, err := d.Feed([]byte("\n\ndata: {\"type\":\"done\"}\n\n\n\n"))
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
}

func TestDecoderMissingMarker(t *testing.T) {
	var d Decoder
	if _, err := d.Feed([]byte("event: {\"type\":\"done\"}\n\n")); err == nil {
		t.Fatalf("expected marker error")
	}
}
