//go:build semx_cachelinesize_32

package opt

// CacheLineSize_ is forced to 32 bytes.
// Use: go build -tags=semx_cachelinesize_32
const CacheLineSize_ = 32
