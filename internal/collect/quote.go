package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"TradeScope/internal/domain/models"
	"TradeScope/internal/domain/repository"
	"TradeScope/pkg/logger"
)

// QuoteStream collects a live price snapshot over the provider WebSocket feed.
// It subscribes to the subject, waits up to cfg.QuoteWait for the first trade
// print, and falls back to the REST quote when the feed stays quiet.
type QuoteStream struct {
	c   *Client
	log *logger.Logger
}

func NewQuoteStream(c *Client, log *logger.Logger) repository.Collector {
	return &QuoteStream{c: c, log: log}
}

func (s *QuoteStream) Step() models.StepName { return models.StepQuote }

type wsTrade struct {
	Symbol    string  `json:"s"`
	Price     float64 `json:"p"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

func (s *QuoteStream) Collect(ctx context.Context, subject string) (interface{}, error) {
	q, err := s.live(ctx, subject)
	if err != nil {
		s.log.Debug("live quote unavailable, using snapshot",
			logger.String("subject", subject), logger.Error(err))
		return s.c.Quote(ctx, subject)
	}
	return q, nil
}

func (s *QuoteStream) live(ctx context.Context, subject string) (*models.Quote, error) {
	if s.c.cfg.WebsocketURL == "" {
		return nil, fmt.Errorf("quote stream not configured")
	}

	u := fmt.Sprintf("%s?token=%s", s.c.cfg.WebsocketURL, s.c.cfg.APIKey)
	dialCtx, cancel := context.WithTimeout(ctx, s.c.cfg.QuoteWait)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("quote stream connect: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": subject}); err != nil {
		return nil, fmt.Errorf("quote stream subscribe %s: %w", subject, err)
	}

	deadline := time.Now().Add(s.c.cfg.QuoteWait)
	_ = conn.SetReadDeadline(deadline)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, b, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("quote stream read: %w", err)
		}
		var m wsMessage
		if err := json.Unmarshal(b, &m); err != nil {
			// ignore non-trade frames
			continue
		}
		if m.Type != "trade" {
			continue
		}
		for _, d := range m.Data {
			if d.Symbol != subject {
				continue
			}
			return &models.Quote{
				Price:     d.Price,
				Volume:    d.Volume,
				Timestamp: time.UnixMilli(d.Timestamp).UTC(),
			}, nil
		}
	}
}
