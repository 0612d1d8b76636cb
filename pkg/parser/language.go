package parser

import (
	"path/filepath"
	"strings"
)

// Dialect is the markup grammar used to parse a component file.
type Dialect int

const (
	// DialectTSX is TypeScript with JSX (.tsx files).
	DialectTSX Dialect = iota
	// DialectJSX is JavaScript with JSX (.jsx and .js files).
	DialectJSX
	// DialectUnknown marks an unsupported file.
	DialectUnknown
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case DialectTSX:
		return "tsx"
	case DialectJSX:
		return "jsx"
	default:
		return "unknown"
	}
}

// DetectDialect picks the grammar from a file path's extension.
func DetectDialect(filePath string) Dialect {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".tsx", ".ts", ".mts", ".cts":
		return DialectTSX
	case ".jsx", ".js", ".mjs", ".cjs":
		return DialectJSX
	default:
		return DialectUnknown
	}
}

// ParseDialectString converts a dialect name to a Dialect.
func ParseDialectString(s string) Dialect {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tsx", "typescript", "ts":
		return DialectTSX
	case "jsx", "javascript", "js":
		return DialectJSX
	default:
		return DialectUnknown
	}
}
