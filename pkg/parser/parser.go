package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/classmod/pkg/util"
)

// ErrSyntax is returned by ParseStrict when the tree contains syntax errors.
var ErrSyntax = errors.New("markup contains syntax errors")

// ParserManager manages tree-sitter parsers for the supported markup dialects
// with lazy initialization and thread-safe concurrent access.
//
// Memory Management:
// - Parser pools are created lazily on first use per dialect
// - ParserManager owns parser pool instances and must be closed via Close()
// - Callers own Tree instances and must call tree.Close() after use
//
// Example:
//
//	manager := NewParserManager(logger)
//	defer manager.Close()
//
//	tree, err := manager.ParseFile(src, "features/nav/Navbar.tsx")
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	pools    map[Dialect]*parserPool
	poolSize int
	mutex    sync.RWMutex
	logger   *slog.Logger

	stats struct {
		parsesCalled int
		syntaxErrors int
	}
}

// NewParserManager creates a new ParserManager instance.
// The returned manager must be closed via Close() to free resources.
func NewParserManager(logger *slog.Logger) *ParserManager {
	return NewParserManagerWithPoolSize(logger, 0)
}

// NewParserManagerWithPoolSize is NewParserManager with an explicit per-dialect
// pool size; zero selects util.PoolSize().
func NewParserManagerWithPoolSize(logger *slog.Logger, poolSize int) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &ParserManager{
		pools:    make(map[Dialect]*parserPool),
		poolSize: util.PoolSizeWithOverride(poolSize),
		logger:   logger,
	}
}

// Parse parses source with the given dialect's grammar. Trees with syntax
// errors are still returned; use ParseStrict to reject them.
//
// Returns a Tree that MUST be closed by the caller via tree.Close().
func (pm *ParserManager) Parse(source []byte, dialect Dialect) (*ts.Tree, error) {
	if dialect == DialectUnknown {
		return nil, fmt.Errorf("cannot parse unknown dialect")
	}

	pm.mutex.Lock()
	pm.stats.parsesCalled++
	pm.mutex.Unlock()

	pool, err := pm.getOrCreatePool(dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", dialect, err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}

	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser.Parse returned nil tree")
	}

	return tree, nil
}

// ParseStrict parses source and fails with ErrSyntax when the tree contains
// error or missing nodes. On failure the tree is closed before returning.
func (pm *ParserManager) ParseStrict(source []byte, dialect Dialect) (*ts.Tree, error) {
	tree, err := pm.Parse(source, dialect)
	if err != nil {
		return nil, err
	}

	root := tree.RootNode()
	if root.HasError() {
		tree.Close()

		pm.mutex.Lock()
		pm.stats.syntaxErrors++
		pm.mutex.Unlock()

		pm.logger.Debug("parse tree contains errors", "dialect", dialect.String())
		return nil, ErrSyntax
	}

	return tree, nil
}

// ParseFile detects the dialect from filePath and parses strictly.
// Returns a Tree that MUST be closed by the caller via tree.Close().
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	dialect := DetectDialect(filePath)
	if dialect == DialectUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}

	tree, err := pm.ParseStrict(source, dialect)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return tree, nil
}

// Close releases all parser pool resources. After Close(), the ParserManager
// cannot be used.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.logger.Debug("closing ParserManager",
		"parses_called", pm.stats.parsesCalled,
		"syntax_errors", pm.stats.syntaxErrors)

	for _, pool := range pm.pools {
		if pool != nil {
			pool.close()
		}
	}
	pm.pools = make(map[Dialect]*parserPool)

	return nil
}

// getOrCreatePool returns an existing parser pool or creates a new one.
// Thread-safe using double-checked locking.
func (pm *ParserManager) getOrCreatePool(dialect Dialect) (*parserPool, error) {
	pm.mutex.RLock()
	pool, exists := pm.pools[dialect]
	pm.mutex.RUnlock()

	if exists {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pool, exists = pm.pools[dialect]; exists {
		return pool, nil
	}

	langPtr, err := languagePointer(dialect)
	if err != nil {
		return nil, err
	}

	pool = newParserPool(dialect, langPtr, pm.poolSize, pm.logger)
	pm.pools[dialect] = pool

	pm.logger.Debug("created new parser pool",
		"dialect", dialect.String(),
		"maxSize", pm.poolSize)

	return pool, nil
}

func languagePointer(dialect Dialect) (unsafe.Pointer, error) {
	switch dialect {
	case DialectTSX:
		return ts_typescript.LanguageTSX(), nil
	case DialectJSX:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect.String())
	}
}

// GetStats returns parser usage statistics.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	totalParsers := 0
	for _, pool := range pm.pools {
		totalParsers += pool.getCreatedCount()
	}

	return ParserStats{
		ParsersCreated: totalParsers,
		ParsesCalled:   pm.stats.parsesCalled,
		SyntaxErrors:   pm.stats.syntaxErrors,
	}
}

// ParserStats contains parser usage statistics.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int
	SyntaxErrors   int
}
