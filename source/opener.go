// Package source discovers and opens the byte sources a pipeline reads
// from: a glob/URL file specification resolves to a sorted list of
// Openers, each lazily yielding an io.ReadCloser when Open is called.
//
// This is the out-of-scope-per-spec.md-§1 "file discovery" collaborator:
// spec.md §1 states "the core only consumes a byte source and emits a byte
// sink", and this package is exactly that upstream byte-source collaborator.
// It is adapted from the teacher's own `opener` and `openers` packages,
// which were near-duplicates of each other (the teacher's `opener` package
// referenced an `Opener` type it never defined, relying on the separate
// `openers` package's interface of the same name never actually being
// imported -- an artifact of the teacher's own in-progress refactor). This
// package consolidates both into one coherent, self-contained package.
package source

import (
	"context"
	"io"
)

// Opener lazily opens one byte source and reports its stable identity
// (used as the source/file name propagated into recctx.Context).
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}
