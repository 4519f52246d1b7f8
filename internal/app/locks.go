package service

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// deviceLocks serializes Sync and Rename per device. A device always maps to
// the same stripe; unrelated devices may share one.
type deviceLocks struct {
	stripes []sync.Mutex
}

func newDeviceLocks(n int) *deviceLocks {
	if n < 1 {
		n = 1
	}
	return &deviceLocks{stripes: make([]sync.Mutex, n)}
}

func (d *deviceLocks) lock(deviceID string) (unlock func()) {
	m := &d.stripes[xxhash.Sum64String(deviceID)%uint64(len(d.stripes))]
	m.Lock()
	return m.Unlock
}
