//go:build (386 || arm || mips || mipsle || wasm) && !semx_disable_padding && !semx_enable_padding

package opt

import "sync/atomic"

// PaddedInt32 is a shared-state slot.
// Padding is disabled by default on 32-bit architectures
// (386, arm, mips, mipsle, wasm) where memory is the tighter constraint.
type PaddedInt32 struct {
	atomic.Int32
}
