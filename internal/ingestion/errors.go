package ingestion

import (
	"encoding/json"
	"errors"

	"sui-amm-indexer/internal/cointype"
	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
	"sui-amm-indexer/internal/sui"
)

// Error classes reported in event_processing_errors_total.
const (
	classParse   = "parse"
	classResolve = "resolve"
	classChain   = "chain"
	classStore   = "store"
	classPrice   = "price"
	classUnknown = "unknown"
)

// stageError tags an error with the pipeline stage that produced it.
// Known sentinels in the chain take precedence over the stage.
type stageError struct {
	class string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }

func (e *stageError) Unwrap() error { return e.err }

func inStage(class string, err error) error {
	return &stageError{class: class, err: err}
}

// classify maps a handler error to its error class.
func classify(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		rpcErr    *sui.RPCError
		stage     *stageError
	)

	switch {
	case errors.Is(err, domain.ErrZeroReserve):
		return classPrice
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingTimestamp),
		errors.Is(err, cointype.ErrTypeFormat),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr):
		return classParse
	case errors.Is(err, sui.ErrObjectNotFound),
		errors.Is(err, sui.ErrMetadataNotFound):
		return classResolve
	case errors.As(err, &rpcErr):
		return classChain
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrDuplicateKey),
		errors.Is(err, storage.ErrInvalidInput):
		return classStore
	case errors.As(err, &stage):
		return stage.class
	default:
		return classUnknown
	}
}
