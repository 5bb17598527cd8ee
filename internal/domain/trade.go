package domain

// Trade is one executed swap as shown in the trade ledger.
type Trade struct {
	Account     string         `json:"account"`
	Direction   TradeDirection `json:"tradeType"`
	SuiAmount   uint64         `json:"suiAmount"`          // MIST moved in the trade
	TimestampMs int64          `json:"updatedTimeStampAt"` // event time (ms)
	TxDigest    string         `json:"transactionHash"`
}

// TradeLedger lists trades for a coin type, newest first.
// Stored in the trade_ledger table, keyed by coin_type.
type TradeLedger struct {
	CoinType string  `json:"coin_type"`
	Trades   []Trade `json:"trades"`
}

// Prepend puts t at the front of the ledger.
func (l *TradeLedger) Prepend(t Trade) {
	l.Trades = append(l.Trades, Trade{})
	copy(l.Trades[1:], l.Trades)
	l.Trades[0] = t
}
