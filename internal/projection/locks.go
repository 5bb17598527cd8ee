package projection

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// keyLocks serializes read-modify-write cycles per coin type.
type keyLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *keyLocks) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
