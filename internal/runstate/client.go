package runstate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"TradeScope/internal/domain/models"
	pkgstream "TradeScope/pkg/stream"
)

// Client follows one run's event stream and drives a Reducer. It is the
// observer side of the pipeline: the stream is its only view of the run.
type Client struct {
	baseURL string
	http    *http.Client
	reducer *Reducer

	// OnEvent, when set, is invoked after each event is applied.
	OnEvent func(ev *models.WireEvent, st *State)
}

// NewClient builds a stream client. The http.Client must not enforce an
// overall timeout: the stream is long-lived and ends with the run.
func NewClient(baseURL string, hc *http.Client, reducer *Reducer) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: baseURL, http: hc, reducer: reducer}
}

// Follow starts a run for subject+mode and applies its events until the
// stream closes or ctx is cancelled. The reducer is reset before the first
// event so a rerun for the same subject starts clean.
func (c *Client) Follow(ctx context.Context, subject, mode string) (*State, error) {
	q := url.Values{}
	q.Set("symbol", subject)
	q.Set("mode", mode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/analyze?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("runstate: build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runstate: connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("runstate: unexpected status %d: %s", resp.StatusCode, body)
	}

	c.reducer.Reset(subject)

	var dec pkgstream.Decoder
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			frames, err := dec.Feed(buf[:n])
			if err != nil {
				return c.reducer.State(), fmt.Errorf("runstate: %w", err)
			}
			for _, frame := range frames {
				ev, err := models.DecodeWireEvent(frame)
				if err != nil {
					// A malformed frame body is dropped; framing already
					// guarantees we never parse a truncated object.
					continue
				}
				c.reducer.Apply(ev)
				if c.OnEvent != nil {
					c.OnEvent(ev, c.reducer.State())
				}
			}
		}
		if readErr == io.EOF {
			return c.reducer.State(), nil
		}
		if readErr != nil {
			return c.reducer.State(), fmt.Errorf("runstate: stream read: %w", readErr)
		}
	}
}

// Cached reads the cached-analysis endpoint and, on a hit, hydrates the
// reducer's terminal state without running the pipeline.
func (c *Client) Cached(ctx context.Context, subject string) (*State, bool, error) {
	q := url.Values{}
	q.Set("symbol", subject)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/analysis/cached?"+q.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("runstate: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("runstate: cached read: %w", err)
	}
	defer resp.Body.Close()

	var payload models.CachedAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("runstate: decode cached response: %w", err)
	}
	if !payload.Cached {
		return c.reducer.State(), false, nil
	}

	c.reducer.Hydrate(&models.CacheEntry{
		Subject:  subject,
		Date:     payload.Date,
		Agents:   payload.Agents,
		Decision: payload.Decision,
	})
	return c.reducer.State(), true, nil
}
