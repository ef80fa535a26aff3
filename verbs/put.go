package verbs

import (
	"github.com/sirupsen/logrus"

	"github.com/carlodf/mlrq/dsl/ast"
	"github.com/carlodf/mlrq/dsl/cst"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// Put runs a compiled DSL program against every record (spec.md §4.G's
// streaming-derived class: "filter and put (DSL; see §4.H)"). begin
// blocks run on the first call; end blocks, and their emitted records,
// run on the end-of-stream sentinel. A record survives downstream unless
// an explicit `filter` statement in the script set it to be dropped.
func Put(prog *ast.Program) stream.Verb {
	regexCache, err := cst.NewRegexCache()
	if err != nil {
		logrus.WithError(err).Fatal("put: failed to allocate regex cache")
	}
	interp := cst.New(prog, regexCache, cst.NewRedirectCache())
	started := false
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if !started {
			started = true
			if err := interp.RunBegin(ctx); err != nil {
				logrus.WithError(err).Error("put: begin block failed")
			}
		}
		if rec == nil {
			if err := interp.RunEnd(ctx); err != nil {
				logrus.WithError(err).Error("put: end block failed")
			}
			out := interp.TakeEmitted()
			if err := interp.Close(); err != nil {
				logrus.WithError(err).Error("put: closing redirection sinks")
			}
			return append(out, nil)
		}
		keep, err := interp.RunMain(rec, ctx)
		if err != nil {
			logrus.WithError(err).Error("put: statement failed")
		}
		out := interp.TakeEmitted()
		if keep {
			out = append(out, rec)
		}
		return out
	})
}

// PutQuiet runs a compiled DSL program the same way Put does, but
// suppresses the main record from downstream entirely (spec.md §4.G's
// `put -q`): only records the script explicitly produces via `emit` reach
// the writer. Useful for scripts that exist purely to accumulate
// out-of-stream state and report it at end of stream.
func PutQuiet(prog *ast.Program) stream.Verb {
	regexCache, err := cst.NewRegexCache()
	if err != nil {
		logrus.WithError(err).Fatal("put -q: failed to allocate regex cache")
	}
	interp := cst.New(prog, regexCache, cst.NewRedirectCache())
	started := false
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if !started {
			started = true
			if err := interp.RunBegin(ctx); err != nil {
				logrus.WithError(err).Error("put -q: begin block failed")
			}
		}
		if rec == nil {
			if err := interp.RunEnd(ctx); err != nil {
				logrus.WithError(err).Error("put -q: end block failed")
			}
			out := interp.TakeEmitted()
			if err := interp.Close(); err != nil {
				logrus.WithError(err).Error("put -q: closing redirection sinks")
			}
			return append(out, nil)
		}
		if _, err := interp.RunMain(rec, ctx); err != nil {
			logrus.WithError(err).Error("put -q: statement failed")
		}
		return interp.TakeEmitted()
	})
}

// Filter runs a compiled DSL program whose pattern decides whether each
// record survives downstream: either an explicit `filter expr` statement,
// or (more commonly) the truthiness of the script's final bare boolean
// expression per record, spec.md §4.G/§4.H.
func Filter(prog *ast.Program) stream.Verb {
	regexCache, err := cst.NewRegexCache()
	if err != nil {
		logrus.WithError(err).Fatal("filter: failed to allocate regex cache")
	}
	interp := cst.New(prog, regexCache, cst.NewRedirectCache())
	interp.SetFilterMode(true)
	started := false
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if !started {
			started = true
			if err := interp.RunBegin(ctx); err != nil {
				logrus.WithError(err).Error("filter: begin block failed")
			}
		}
		if rec == nil {
			if err := interp.RunEnd(ctx); err != nil {
				logrus.WithError(err).Error("filter: end block failed")
			}
			out := interp.TakeEmitted()
			if err := interp.Close(); err != nil {
				logrus.WithError(err).Error("filter: closing redirection sinks")
			}
			return append(out, nil)
		}
		keep, err := interp.RunMain(rec, ctx)
		if err != nil {
			logrus.WithError(err).Error("filter: statement failed")
		}
		out := interp.TakeEmitted()
		if keep {
			out = append(out, rec)
		}
		return out
	})
}
