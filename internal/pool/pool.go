// Package pool provides sync.Pool backed buffers reused across frames by the
// desktop renderer.
package pool

import (
	"strings"
	"sync"
)

// maxBuilderCap keeps one oversized frame from pinning memory in the pool.
const maxBuilderCap = 1 << 20

var stringBuilderPool = sync.Pool{
	New: func() any {
		return new(strings.Builder)
	},
}

// GetStringBuilder returns an empty builder.
func GetStringBuilder() *strings.Builder {
	return stringBuilderPool.Get().(*strings.Builder)
}

// PutStringBuilder resets sb and returns it to the pool.
func PutStringBuilder(sb *strings.Builder) {
	if sb == nil || sb.Cap() > maxBuilderCap {
		return
	}
	sb.Reset()
	stringBuilderPool.Put(sb)
}

var lineSlicePool = sync.Pool{
	New: func() any {
		s := make([]string, 0, 64)
		return &s
	},
}

// GetLineSlice returns an empty slice for assembling the rows of a block.
func GetLineSlice() *[]string {
	return lineSlicePool.Get().(*[]string)
}

// PutLineSlice clears lines and returns it to the pool.
func PutLineSlice(lines *[]string) {
	if lines == nil {
		return
	}
	clear(*lines)
	*lines = (*lines)[:0]
	lineSlicePool.Put(lines)
}
