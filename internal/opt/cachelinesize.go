//go:build !semx_cachelinesize_32 && !semx_cachelinesize_64 && !semx_cachelinesize_128 && !semx_cachelinesize_256

package opt

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize_ is the padding unit for slots, taken from the target's
// cpu.CacheLinePad. Override with one of the semx_cachelinesize_* tags.
const CacheLineSize_ = unsafe.Sizeof(cpu.CacheLinePad{})
