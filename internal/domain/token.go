package domain

// CoinMetadata is the on-chain metadata of a coin type.
type CoinMetadata struct {
	ID          *string // metadata object id (nullable)
	Name        string
	Symbol      string
	Decimals    uint8
	Description string
	IconURL     *string // nullable
}

// TokenInfo describes a coin type first seen in a pool creation.
// Stored in the token_info table, keyed by coin_type.
type TokenInfo struct {
	CoinType      string  `json:"coin_type"` // PK
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Decimals      uint8   `json:"decimals"`
	IconURL       *string `json:"icon_url"` // nullable
	Description   string  `json:"description"`
	TotalSupply   uint64  `json:"total_supply"`
	CreateTimeMs  int64   `json:"create_time"`   // pool creation time (ms)
	CreateDigest  string  `json:"create_digest"` // pool creation tx
	RecentTradeMs *int64  `json:"recent_trade"`  // last swap time (ms), nil until first trade
}
