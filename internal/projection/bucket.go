// Package projection folds resolved events into the per-asset documents.
package projection

import "time"

// BucketInterval is the candle width in minutes.
const BucketInterval = 5

// BucketStart returns the unix-second label of the 5 minute bucket holding
// tsMs. Buckets are labelled by their closing minute: a partial minute rounds
// up, then the minute rounds up to a multiple of five. Rolling past :55 moves
// to minute 0 of the next hour on the same calendar date, so 23:57 maps to
// 00:00 of the same day.
func BucketStart(tsMs int64) int64 {
	t := time.UnixMilli(tsMs).UTC()
	y, mo, d := t.Date()
	h, m := t.Hour(), roundedMinute(t)

	if m >= 60 {
		h = (h + 1) % 24
		m = 0
	}
	return time.Date(y, mo, d, h, m, 0, 0, time.UTC).Unix()
}

// BucketStartCarry is BucketStart with the rollover past 23:55 carried into
// the next date.
func BucketStartCarry(tsMs int64) int64 {
	t := time.UnixMilli(tsMs).UTC()
	y, mo, d := t.Date()
	// time.Date normalizes minute 60 into the next hour and day
	return time.Date(y, mo, d, t.Hour(), roundedMinute(t), 0, 0, time.UTC).Unix()
}

func roundedMinute(t time.Time) int {
	m := t.Minute()
	if t.Second() > 0 {
		m++
	}
	return (m + BucketInterval - 1) / BucketInterval * BucketInterval
}
