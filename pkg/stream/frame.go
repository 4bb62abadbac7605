// Package stream implements the text frame protocol used by the run event
// stream: each frame is a fixed "data: " marker, a single JSON object, and a
// blank-line terminator.
package stream

import (
	"bytes"
	"fmt"
)

// Marker prefixes every frame body.
const Marker = "data: "

// frameSep terminates a frame. Nothing before the separator is a complete frame.
var frameSep = []byte("\n\n")

// Encode renders one frame from a marshaled JSON object.
func Encode(body []byte) []byte {
	out := make([]byte, 0, len(Marker)+len(body)+2)
	out = append(out, Marker...)
	out = append(out, body...)
	out = append(out, frameSep...)
	return out
}

// Decoder reassembles frames from an arbitrarily chunked byte stream. Trailing
// partial frames stay buffered until their terminator arrives; they are never
// surfaced half-parsed.
type Decoder struct {
	buf bytes.Buffer
}

// Feed appends a chunk and returns the bodies of every frame completed by it.
func (d *Decoder) Feed(chunk []byte) ([][]byte, error) {
	d.buf.Write(chunk)

	var out [][]byte
	for {
		data := d.buf.Bytes()
		idx := bytes.Index(data, frameSep)
		if idx < 0 {
			return out, nil
		}
		frame := data[:idx]
		d.buf.Next(idx + len(frameSep))

		frame = bytes.TrimSpace(frame)
		if len(frame) == 0 {
			continue // keep-alive gap
		}
		if !bytes.HasPrefix(frame, []byte(Marker)) {
			return out, fmt.Errorf("stream: frame missing %q marker", Marker)
		}
		body := bytes.TrimSpace(frame[len(Marker):])
		out = append(out, append([]byte(nil), body...))
	}
}

// Pending returns the number of buffered bytes awaiting a frame terminator.
func (d *Decoder) Pending() int {
	return d.buf.Len()
}
