//go:build semx_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// PaddedInt32 is a shared-state slot occupying a whole cache line.
// Padding is force-enabled via the semx_enable_padding build tag.
// Use: go build -tags=semx_enable_padding
type PaddedInt32 struct {
	atomic.Int32
	_ [(CacheLineSize_ - unsafe.Sizeof(atomic.Int32{})%CacheLineSize_) % CacheLineSize_]byte
}
