package cst

import (
	"regexp"

	"github.com/dgraph-io/ristretto"

	"github.com/carlodf/mlrq/mlrval"
)

// RegexCache memoizes pattern-string -> compiled *regexp.Regexp, satisfying
// mlrval.RegexCompiler. The DSL's =~/!~/sub/gsub are typically called once
// per record with the same literal pattern string, so a cache turns an
// O(records) number of regexp.Compile calls into effectively O(distinct
// patterns), grounded on dgraph-io/ristretto's admission-counted cache
// (the same library the rest of the module's domain stack already uses
// for frequency-aware caching).
type RegexCache struct {
	cache *ristretto.Cache
}

// NewRegexCache allocates a RegexCache sized for a modest number of
// distinct patterns -- DSL scripts rarely compile more than a few dozen
// regex literals over their lifetime.
func NewRegexCache() (*RegexCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &RegexCache{cache: c}, nil
}

var _ mlrval.RegexCompiler = (*RegexCache)(nil)

// Compile returns the compiled regexp for pattern, compiling and caching
// it on first use.
func (r *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	if v, ok := r.cache.Get(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	r.cache.Set(pattern, re, 1)
	r.cache.Wait()
	return re, nil
}
