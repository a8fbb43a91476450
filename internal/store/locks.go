package store

import (
	"hash/fnv"
	"sync"
)

// sessionLocks serializes mutating operations per session id so a purge
// and an append on the same session cannot interleave their
// read-modify-write cycles. Different sessions map to different stripes
// and never block each other (modulo stripe collisions).
type sessionLocks struct {
	stripes [64]sync.Mutex
}

func (l *sessionLocks) lock(sid string) func() {
	h := fnv.New32a()
	h.Write([]byte(sid))
	mu := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	mu.Lock()
	return mu.Unlock
}
