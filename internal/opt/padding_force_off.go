//go:build semx_disable_padding

package opt

import "sync/atomic"

// PaddedInt32 is a shared-state slot.
// Padding is force-disabled via the semx_disable_padding build tag.
// Use: go build -tags=semx_disable_padding
type PaddedInt32 struct {
	atomic.Int32
}
