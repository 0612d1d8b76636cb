package util

import "runtime"

// PoolSize returns how many tree-sitter parsers a language pool may hold.
//
// Conversion runs are sequential, so one parser is enough for them; the MCP
// server handles tool calls concurrently and benefits from more. The value is
// min(max(NumCPU, 2), 16).
func PoolSize() int {
	n := runtime.NumCPU()
	if n < 2 {
		n = 2
	}
	if n > 16 {
		n = 16
	}
	return n
}

// PoolSizeWithOverride returns override when positive, PoolSize otherwise.
func PoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return PoolSize()
}
