package sui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sui-amm-indexer/internal/domain"
)

const subscribeMethod = "suix_subscribeEvent"

// ErrStreamClosed is reported when the server closes the stream cleanly.
var ErrStreamClosed = errors.New("event stream closed by server")

// WSClientConfig configures WebSocket subscription behavior.
type WSClientConfig struct {
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
	// SubscribeTimeout bounds the wait for the subscription id.
	SubscribeTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long the connection may stay silent (no data, no pong).
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// EventBuffer is the capacity of each stream's event channel.
	EventBuffer int
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		HandshakeTimeout: 10 * time.Second,
		SubscribeTimeout: 30 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      90 * time.Second,
		WriteTimeout:     10 * time.Second,
		EventBuffer:      1024,
	}
}

// WSClient opens suix_subscribeEvent subscriptions, one connection each.
type WSClient struct {
	endpoint  string
	config    WSClientConfig
	logger    *zap.Logger
	requestID atomic.Uint64
}

// Compile-time interface check.
var _ EventSource = (*WSClient)(nil)

// NewWSClient creates a subscription client for a fullnode WebSocket endpoint.
func NewWSClient(endpoint string, config *WSClientConfig, logger *zap.Logger) *WSClient {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultWSConfig().EventBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WSClient{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
	}
}

// SubscribeEvents dials, subscribes with filter, and waits for confirmation.
func (c *WSClient) SubscribeEvents(ctx context.Context, filter EventFilter) (EventStream, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  subscribeMethod,
		Params:  []interface{}{filter.params()},
	}

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	subID, err := c.awaitConfirmation(ctx, conn, reqID)
	if err != nil {
		conn.Close()
		return nil, err
	}

	s := &wsStream{
		conn:   conn,
		config: c.config,
		logger: c.logger.With(zap.Uint64("subscription", subID)),
		subID:  subID,
		events: make(chan domain.RawEvent, c.config.EventBuffer),
		done:   make(chan struct{}),
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	// Start reader goroutine
	s.wg.Add(1)
	go s.readLoop()

	// Start ping goroutine
	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// awaitConfirmation reads until the response to reqID arrives.
func (c *WSClient) awaitConfirmation(ctx context.Context, conn *websocket.Conn, reqID uint64) (uint64, error) {
	deadline := time.Now().Add(c.config.SubscribeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetReadDeadline(deadline)

	// Unblock the read if ctx is cancelled mid-handshake
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, fmt.Errorf("await subscription: %w", err)
		}

		var resp wsResponse
		if err := json.Unmarshal(message, &resp); err != nil || resp.ID != reqID {
			continue
		}
		if resp.Error != nil {
			return 0, resp.Error
		}

		var subID uint64
		if err := json.Unmarshal(resp.Result, &subID); err != nil {
			return 0, fmt.Errorf("decode subscription id: %w", err)
		}
		return subID, nil
	}
}

// wsStream is one live subscription on its own connection.
type wsStream struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	config  WSClientConfig
	logger  *zap.Logger
	subID   uint64

	events chan domain.RawEvent
	done   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup

	errMu sync.Mutex
	err   error
}

func (s *wsStream) Events() <-chan domain.RawEvent {
	return s.events
}

func (s *wsStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *wsStream) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

// Close closes the connection and waits for the stream goroutines.
func (s *wsStream) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()
	s.conn.Close()

	s.wg.Wait()
	return nil
}

// readLoop forwards notifications until the connection fails.
func (s *wsStream) readLoop() {
	defer s.wg.Done()
	defer close(s.events)

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.setErr(ErrStreamClosed)
			} else {
				s.setErr(fmt.Errorf("read: %w", err))
			}
			// Stop the ping loop
			s.closeConn()
			return
		}

		ev, ok := s.handleMessage(message)
		if !ok {
			continue
		}

		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// closeConn tears the connection down after a read failure.
func (s *wsStream) closeConn() {
	if !s.closed.Swap(true) {
		close(s.done)
		s.conn.Close()
	}
}

// handleMessage decodes a notification for this subscription.
func (s *wsStream) handleMessage(message []byte) (domain.RawEvent, bool) {
	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err != nil {
		s.logger.Warn("undecodable message", zap.Error(err))
		return domain.RawEvent{}, false
	}

	if notif.Method != subscribeMethod || notif.Params == nil {
		var resp wsResponse
		if err := json.Unmarshal(message, &resp); err == nil && resp.Error != nil {
			s.logger.Warn("error response", zap.Int("code", resp.Error.Code), zap.String("message", resp.Error.Message))
		}
		return domain.RawEvent{}, false
	}

	if notif.Params.Subscription != s.subID {
		return domain.RawEvent{}, false
	}

	return notif.Params.Result.toRawEvent(), true
}

// pingLoop sends periodic ping frames to keep connection alive.
func (s *wsStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				// Reader will see the broken connection
				s.logger.Debug("ping failed", zap.Error(err))
			}
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription uint64  `json:"subscription"`
	Result       wsEvent `json:"result"`
}

type wsEvent struct {
	ID                domain.EventID  `json:"id"`
	PackageID         string          `json:"packageId"`
	TransactionModule string          `json:"transactionModule"`
	Sender            string          `json:"sender"`
	Type              string          `json:"type"`
	ParsedJSON        json.RawMessage `json:"parsedJson"`
	TimestampMs       string          `json:"timestampMs"`
}

func (e wsEvent) toRawEvent() domain.RawEvent {
	// 0 when absent or malformed; the handlers reject it
	ts, _ := strconv.ParseInt(e.TimestampMs, 10, 64)
	return domain.RawEvent{
		ID:          e.ID,
		PackageID:   e.PackageID,
		Module:      e.TransactionModule,
		Sender:      e.Sender,
		Type:        e.Type,
		ParsedJSON:  e.ParsedJSON,
		TimestampMs: ts,
	}
}
