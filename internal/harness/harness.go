package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"

	"github.com/roach88/pql2/internal/compiler"
	"github.com/roach88/pql2/internal/request"
)

// DefaultCacheSize is the number of compiled requests a Harness keeps.
const DefaultCacheSize = 256

// ExpectFileNotFoundError is returned when a case references an expectation
// file that doesn't exist.
type ExpectFileNotFoundError struct {
	Case         string
	ExpectFile   string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ExpectFileNotFoundError) Error() string {
	return fmt.Sprintf(
		"case %q references expect_file %q which does not exist (resolved to: %s)",
		e.Case,
		e.ExpectFile,
		e.ResolvedPath,
	)
}

// Harness runs suites. Compiled requests are cached by query text and
// shared between runs, so a Harness can check many suites that repeat
// queries without recompiling them.
type Harness struct {
	cache  *lru.Cache
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness) error

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) error {
		h.logger = l
		return nil
	}
}

// WithCacheSize sets the number of compiled requests kept.
func WithCacheSize(n int) Option {
	return func(h *Harness) error {
		cache, err := lru.New(n)
		if err != nil {
			return fmt.Errorf("compiled request cache: %w", err)
		}
		h.cache = cache
		return nil
	}
}

// New creates a Harness.
func New(opts ...Option) (*Harness, error) {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range append([]Option{WithCacheSize(DefaultCacheSize)}, opts...) {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Run executes a suite with a fresh Harness.
func Run(ctx context.Context, suite *Suite) (*Result, error) {
	h, err := New()
	if err != nil {
		return nil, err
	}
	return h.Run(ctx, suite)
}

// Run executes the suite's cases in order.
//
// A case that fails to compile or load records its error and the run moves
// on. Run only returns an error when ctx is done; the result so far is
// returned with it.
func (h *Harness) Run(ctx context.Context, suite *Suite) (*Result, error) {
	result := &Result{Suite: suite.Name, SuiteID: suite.ID, Cases: []CaseResult{}}
	h.logger.Info("running suite", "suite", suite.Name, "cases", len(suite.Cases))

	for _, c := range suite.Cases {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		cr := h.runCase(suite, c)
		if cr.Err != nil {
			h.logger.Warn("case error", "suite", suite.Name, "case", c.Name, "error", cr.Err)
		} else {
			h.logger.Debug("case done", "suite", suite.Name, "case", c.Name,
				"passed", cr.Passed(), "mismatches", cr.Mismatches)
		}
		result.Cases = append(result.Cases, cr)
	}

	h.logger.Info("suite done", "suite", suite.Name, "passed", result.Passed(), "failed", result.Failed())
	return result, nil
}

func (h *Harness) runCase(suite *Suite, c Case) CaseResult {
	cr := CaseResult{Name: c.Name, Query: c.Query, Expected: c.WantEquivalent()}

	actual, err := h.Compile(c.Query)
	if err != nil {
		cr.Err = fmt.Errorf("compile: %w", err)
		return cr
	}
	if cr.RequestID, err = actual.ID(); err != nil {
		cr.Err = err
		return cr
	}

	expected, err := expectation(suite, c)
	if err != nil {
		cr.Err = err
		return cr
	}

	if suite.NormalizeHybridTables {
		actual, expected = normalizeHybrid(actual), normalizeHybrid(expected)
	}

	cmp := request.Compare(expected, actual)
	cr.Equivalent = cmp.Equivalent
	cr.Mismatches = cmp.Mismatches
	cr.Uncovered = cmp.Uncovered
	return cr
}

// Compile compiles a query, returning a cached request when the same text
// was compiled before. Cached requests are shared and must not be modified.
func (h *Harness) Compile(query string) (*request.BrokerRequest, error) {
	if v, ok := h.cache.Get(query); ok {
		return v.(*request.BrokerRequest), nil
	}
	req, err := compiler.CompileQuery(query)
	if err != nil {
		return nil, err
	}
	h.cache.Add(query, req)
	return req, nil
}

// CacheLen reports how many compiled requests are cached.
func (h *Harness) CacheLen() int {
	return h.cache.Len()
}

func expectation(suite *Suite, c Case) (*request.BrokerRequest, error) {
	if c.Expect != nil {
		return c.Expect, nil
	}
	path := c.ExpectFile
	if !filepath.IsAbs(path) && suite.Dir != "" {
		path = filepath.Join(suite.Dir, path)
	}
	req, err := request.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ExpectFileNotFoundError{Case: c.Name, ExpectFile: c.ExpectFile, ResolvedPath: path}
	}
	if err != nil {
		return nil, fmt.Errorf("load expectation: %w", err)
	}
	return req, nil
}

// normalizeHybrid returns a shallow copy with the hybrid suffix removed from
// the table name. The input is left untouched.
func normalizeHybrid(r *request.BrokerRequest) *request.BrokerRequest {
	if r == nil || r.QuerySource == nil {
		return r
	}
	out := *r
	src := *r.QuerySource
	src.TableName = request.HybridTableName(src.TableName)
	out.QuerySource = &src
	return &out
}
