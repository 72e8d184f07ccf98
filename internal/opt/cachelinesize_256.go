//go:build semx_cachelinesize_256

package opt

// CacheLineSize_ is forced to 256 bytes.
// Use: go build -tags=semx_cachelinesize_256
const CacheLineSize_ = 256
