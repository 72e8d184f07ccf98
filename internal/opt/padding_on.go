//go:build !(386 || arm || mips || mipsle || wasm) && !semx_disable_padding && !semx_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// PaddedInt32 is a shared-state slot occupying a whole cache line.
// The permit, waiter and high-water slots are written by every unit on
// every acquire, so they are kept on separate lines by default.
//
// Enabled for: amd64, arm64, s390x, ppc64, ppc64le, riscv64, loong64, etc.
type PaddedInt32 struct {
	atomic.Int32
	_ [(CacheLineSize_ - unsafe.Sizeof(atomic.Int32{})%CacheLineSize_) % CacheLineSize_]byte
}
