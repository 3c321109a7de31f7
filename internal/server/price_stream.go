package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/utils"
)

const (
	defaultStreamInterval = 30 * time.Second
	streamWriteTimeout    = 10 * time.Second
)

// StreamQuote is one symbol's entry in a price message.
type StreamQuote struct {
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"fetched_at"`
}

// PriceMessage is pushed to websocket clients on every tick.
type PriceMessage struct {
	Type      string                 `json:"type"`
	Prices    map[string]StreamQuote `json:"prices"`
	Timestamp string                 `json:"timestamp"`
}

// handlePriceStream pushes current prices over a websocket
// GET /api/stream/prices?symbols=AAPL,MSFT
func (s *Server) handlePriceStream(w http.ResponseWriter, r *http.Request) {
	symbols := domain.NormalizeSymbols(utils.SplitList(r.URL.Query().Get("symbols")))
	if len(symbols) == 0 {
		symbols = s.container.DefaultSymbols()
	}
	if len(symbols) == 0 {
		s.writeError(w, http.StatusBadRequest, "No symbols provided")
		return
	}
	if s.container.Prices == nil {
		s.writeError(w, http.StatusServiceUnavailable, "price cache not available")
		return
	}

	log := s.log.With().Str("stream", "prices").Int("symbols", len(symbols)).Logger()

	// The server write timeout would otherwise carry over to the hijacked connection
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug().Err(err).Msg("Could not clear write deadline")
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to accept websocket")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	log.Info().Msg("Price stream client connected")

	// Clients never send; CloseRead handles control frames and cancels ctx on disconnect
	ctx := conn.CloseRead(r.Context())

	interval := s.cfg.StreamInterval
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.pushPrices(ctx, conn, symbols); err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("Price stream write failed")
			}
			return
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Price stream client disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}

// pushPrices refreshes stale prices and writes one message.
func (s *Server) pushPrices(ctx context.Context, conn *websocket.Conn, symbols []string) error {
	s.container.Prices.Refresh(ctx, symbols, false)

	msg := PriceMessage{
		Type:      "prices",
		Prices:    make(map[string]StreamQuote, len(symbols)),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	for _, sym := range symbols {
		if q, ok := s.container.Prices.Get(sym); ok {
			msg.Prices[sym] = StreamQuote{Price: q.Price, FetchedAt: q.FetchedAt}
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal price message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()

	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to write price message: %w", err)
	}
	return nil
}
