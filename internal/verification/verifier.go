// Package verification checks the live candle projection against candles
// rebuilt from the swap archive.
package verification

import (
	"github.com/shopspring/decimal"

	"sui-amm-indexer/internal/domain"
)

// FieldDivergence represents a mismatch between live and archived values.
type FieldDivergence struct {
	Bucket   int64  `json:"bucket"`   // bucket start (unix seconds)
	Field    string `json:"field"`    // field name
	Expected string `json:"expected"` // live value
	Actual   string `json:"actual"`   // archived value
}

// VerificationResult contains the outcome for one coin type.
type VerificationResult struct {
	CoinType       string            `json:"coin_type"`
	Buckets        int               `json:"buckets"`         // buckets present on either side
	MatchedBuckets int               `json:"matched_buckets"` // buckets present on both sides with equal prices
	MissingLive    []int64           `json:"missing_live"`    // buckets the archive has but the projection lacks
	MissingArchive []int64           `json:"missing_archive"` // buckets the projection has but the archive lacks
	Divergences    []FieldDivergence `json:"divergences"`     // price mismatches
}

// Match reports whether both sides agree on every bucket.
func (r *VerificationResult) Match() bool {
	return len(r.MissingLive) == 0 && len(r.MissingArchive) == 0 && len(r.Divergences) == 0
}

// CompareCandles compares two candle lists by bucket. Order does not matter.
// Current is not compared since it always equals Close.
func CompareCandles(live, archived []domain.Candle) *VerificationResult {
	res := &VerificationResult{}

	archivedByBucket := make(map[int64]domain.Candle, len(archived))
	for _, c := range archived {
		archivedByBucket[c.Timestamp] = c
	}
	seen := make(map[int64]struct{}, len(live))

	for _, l := range live {
		seen[l.Timestamp] = struct{}{}
		a, ok := archivedByBucket[l.Timestamp]
		if !ok {
			res.MissingArchive = append(res.MissingArchive, l.Timestamp)
			continue
		}

		divergences := compareCandle(l, a)
		if len(divergences) == 0 {
			res.MatchedBuckets++
		}
		res.Divergences = append(res.Divergences, divergences...)
	}

	for _, a := range archived {
		if _, ok := seen[a.Timestamp]; !ok {
			res.MissingLive = append(res.MissingLive, a.Timestamp)
		}
	}

	res.Buckets = len(seen) + len(res.MissingLive)
	return res
}

func compareCandle(live, archived domain.Candle) []FieldDivergence {
	var divergences []FieldDivergence

	fields := []struct {
		name     string
		expected decimal.Decimal
		actual   decimal.Decimal
	}{
		{"Open", live.Open, archived.Open},
		{"High", live.High, archived.High},
		{"Low", live.Low, archived.Low},
		{"Close", live.Close, archived.Close},
	}
	for _, f := range fields {
		if !f.expected.Equal(f.actual) {
			divergences = append(divergences, FieldDivergence{
				Bucket:   live.Timestamp,
				Field:    f.name,
				Expected: f.expected.String(),
				Actual:   f.actual.String(),
			})
		}
	}

	return divergences
}
