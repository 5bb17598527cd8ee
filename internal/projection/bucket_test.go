package projection

import (
	"testing"
	"time"
)

func ms(t time.Time) int64 { return t.UnixMilli() }

func at(h, m, s, nsec int) time.Time {
	return time.Date(2024, 3, 10, h, m, s, nsec, time.UTC)
}

func TestBucketStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"minute 4 second 30", at(12, 4, 30, 0), at(12, 5, 0, 0)},
		{"exactly minute 5", at(12, 5, 0, 0), at(12, 5, 0, 0)},
		{"minute 5 second 1", at(12, 5, 1, 0), at(12, 10, 0, 0)},
		{"minute 2 second 0 rounds up", at(12, 2, 0, 0), at(12, 5, 0, 0)},
		{"top of hour", at(12, 0, 0, 0), at(12, 0, 0, 0)},
		{"sub-second only", at(12, 5, 0, 999_000_000), at(12, 5, 0, 0)},
		{"minute 59 second 30", at(12, 59, 30, 0), at(13, 0, 0, 0)},
		{"minute 56", at(12, 56, 0, 0), at(13, 0, 0, 0)},
		{"minute 55 exact", at(12, 55, 0, 0), at(12, 55, 0, 0)},
		{"midnight wrap keeps date", at(23, 57, 10, 0), at(0, 0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BucketStart(ms(tt.in))
			if got != tt.want.Unix() {
				t.Errorf("BucketStart(%s) = %s, want %s",
					tt.in.Format(time.RFC3339Nano),
					time.Unix(got, 0).UTC().Format(time.RFC3339),
					tt.want.Format(time.RFC3339))
			}
		})
	}
}

func TestBucketStartCarry(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"same as BucketStart mid-hour", at(12, 4, 30, 0), at(12, 5, 0, 0)},
		{"hour rollover", at(12, 59, 30, 0), at(13, 0, 0, 0)},
		{"midnight carries date", at(23, 57, 10, 0), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"month end carries", time.Date(2024, 2, 29, 23, 58, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BucketStartCarry(ms(tt.in))
			if got != tt.want.Unix() {
				t.Errorf("BucketStartCarry(%s) = %s, want %s",
					tt.in.Format(time.RFC3339),
					time.Unix(got, 0).UTC().Format(time.RFC3339),
					tt.want.Format(time.RFC3339))
			}
		})
	}
}

func TestBucketStart_MultipleOfFiveAndNotBefore(t *testing.T) {
	base := at(0, 0, 0, 0)
	for sec := 0; sec < 24*3600-300; sec += 37 {
		ts := base.Add(time.Duration(sec) * time.Second)
		b := BucketStart(ms(ts))

		if b%300 != 0 {
			t.Fatalf("bucket for %s is not on a 5 minute boundary", ts)
		}
		if b < ts.Unix() || b-ts.Unix() >= 300 {
			t.Fatalf("bucket %d for %s outside (ts, ts+5m]", b, ts)
		}
	}
}
