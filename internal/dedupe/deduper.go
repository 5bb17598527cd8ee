// Package dedupe remembers which events were already processed.
package dedupe

import "context"

// Deduper reports whether an id was seen before, recording it if not.
type Deduper interface {
	// Seen returns true when id was already recorded and not yet expired.
	Seen(ctx context.Context, id string) (alreadySeen bool, err error)
}
