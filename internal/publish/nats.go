package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"sui-amm-indexer/internal/domain"
)

// NATSPublisher publishes JSON messages on core NATS subjects.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to url. Reconnects are unbounded.
func NewNATSPublisher(url, prefix string, logger *zap.Logger) (*NATSPublisher, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("nats")

	nc, err := nats.Connect(url,
		nats.Name("sui-amm-indexer"),
		nats.Timeout(5*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{nc: nc, prefix: prefix, logger: logger}, nil
}

// Subject builds <prefix>.<kind>.<coinType>.
func (p *NATSPublisher) Subject(kind, coinType string) string {
	return p.prefix + "." + kind + "." + coinType
}

// PoolCreated publishes on <prefix>.pool.created.
func (p *NATSPublisher) PoolCreated(state *domain.PoolState) error {
	return p.publish(p.prefix+".pool.created", state)
}

// Trade publishes on <prefix>.trade.<coinType>.
func (p *NATSPublisher) Trade(coinType string, trade domain.Trade) error {
	return p.publish(p.Subject("trade", coinType), TradeMessage{CoinType: coinType, Trade: trade})
}

// Candle publishes on <prefix>.candle.<coinType>.
func (p *NATSPublisher) Candle(coinType string, candle domain.Candle) error {
	return p.publish(p.Subject("candle", coinType), CandleMessage{CoinType: coinType, Candle: candle})
}

func (p *NATSPublisher) publish(subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Ready reports whether the connection is up.
func (p *NATSPublisher) Ready() bool {
	return p.nc.Status() == nats.CONNECTED
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.nc.IsClosed() {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("drain nats connection: %w", err)
	}
	return nil
}
