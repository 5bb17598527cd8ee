package sui

import (
	"context"
	"errors"

	"sui-amm-indexer/internal/domain"
)

var (
	// ErrObjectNotFound is returned when an object does not exist or was deleted.
	ErrObjectNotFound = errors.New("object not found")
	// ErrMetadataNotFound is returned when a coin type has no CoinMetadata object.
	ErrMetadataNotFound = errors.New("coin metadata not found")
)

// ChainState defines the point lookups the indexer needs from a Sui fullnode.
type ChainState interface {
	// GetObjectType returns the Move type of an object. Returns ErrObjectNotFound if missing.
	GetObjectType(ctx context.Context, objectID string) (string, error)

	// GetCoinMetadata returns metadata for a coin type. Returns ErrMetadataNotFound if missing.
	GetCoinMetadata(ctx context.Context, coinType string) (*domain.CoinMetadata, error)

	// GetTotalSupply returns the total supply of a coin type.
	GetTotalSupply(ctx context.Context, coinType string) (uint64, error)

	// GetBalance returns the total balance of coinType owned by owner.
	GetBalance(ctx context.Context, owner, coinType string) (uint64, error)
}
