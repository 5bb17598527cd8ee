package domain

import (
	"encoding/json"
	"fmt"
)

// CreatePoolPayload is the parsedJson body of a CreatePoolEvent.
type CreatePoolPayload struct {
	Account     string `json:"account"`
	PoolID      string `json:"pool_id"`
	MetadataID  string `json:"metadata_id"`
	TreasuryID  string `json:"treasury_id"`
	ReserveMeme string `json:"reserve_meme"`
	ReserveSui  string `json:"reserve_sui"`
}

// DecodeCreatePoolPayload decodes a CreatePoolEvent body.
func DecodeCreatePoolPayload(raw json.RawMessage) (*CreatePoolPayload, error) {
	var p CreatePoolPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode create pool payload: %w", err)
	}
	if p.PoolID == "" {
		return nil, fmt.Errorf("decode create pool payload: missing pool_id")
	}
	return &p, nil
}

// PoolCreatedRecord is a pool creation resolved to its coin type.
type PoolCreatedRecord struct {
	CoinType    string
	PoolID      string
	Account     string
	MetadataID  string
	TreasuryID  string
	ReserveMeme uint64
	ReserveSui  uint64
	TimestampMs int64
	TxDigest    string
}

// NewPoolCreatedRecord parses the initial reserves. Fails with ErrInvalidAmount.
func NewPoolCreatedRecord(p *CreatePoolPayload, coinType, digest string, timestampMs int64) (*PoolCreatedRecord, error) {
	reserveMeme, err := ParseAmount(p.ReserveMeme)
	if err != nil {
		return nil, fmt.Errorf("reserve_meme: %w", err)
	}
	reserveSui, err := ParseAmount(p.ReserveSui)
	if err != nil {
		return nil, fmt.Errorf("reserve_sui: %w", err)
	}

	return &PoolCreatedRecord{
		CoinType:    coinType,
		PoolID:      p.PoolID,
		Account:     p.Account,
		MetadataID:  p.MetadataID,
		TreasuryID:  p.TreasuryID,
		ReserveMeme: reserveMeme,
		ReserveSui:  reserveSui,
		TimestampMs: timestampMs,
		TxDigest:    digest,
	}, nil
}

// PoolState holds the latest reserves of the pool trading CoinType.
// Stored in the pool_state table, keyed by coin_type.
type PoolState struct {
	CoinType    string `json:"coin_type"`    // PK
	PoolID      string `json:"pool_id"`      // on-chain pool object id
	ReserveMeme uint64 `json:"reserve_meme"` // meme coin reserve
	ReserveSui  uint64 `json:"reserve_sui"`  // SUI reserve (MIST)
	TimestampMs int64  `json:"time_stamp"`   // last update (ms)
}
