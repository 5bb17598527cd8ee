// Package publish fans projection updates out to live subscribers.
package publish

import (
	"sui-amm-indexer/internal/domain"
)

// DefaultSubjectPrefix prefixes every subject.
const DefaultSubjectPrefix = "amm"

// Publisher announces projection updates. Implementations must not block
// the dispatcher on slow subscribers.
type Publisher interface {
	PoolCreated(state *domain.PoolState) error
	Trade(coinType string, trade domain.Trade) error
	Candle(coinType string, candle domain.Candle) error
	Close() error
}

// TradeMessage is the payload published on <prefix>.trade.<coinType>.
type TradeMessage struct {
	CoinType string `json:"coin_type"`
	domain.Trade
}

// CandleMessage is the payload published on <prefix>.candle.<coinType>.
type CandleMessage struct {
	CoinType string `json:"coin_type"`
	domain.Candle
}

// Noop discards every message.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) PoolCreated(*domain.PoolState) error { return nil }

func (Noop) Trade(string, domain.Trade) error { return nil }

func (Noop) Candle(string, domain.Candle) error { return nil }

func (Noop) Close() error { return nil }
