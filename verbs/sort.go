package verbs

import (
	"sort"
	"strconv"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// SortKey names one sort field and how to compare it, spec.md §4.G's
// "sort (stable, multi-key, lexical or numeric ascending/descending)".
type SortKey struct {
	Field      string
	Numeric    bool
	Descending bool
}

// Sort buffers the entire stream (it cannot know the final order of any
// record until every later record has been seen) and emits it, stably
// sorted by keys in priority order, at end-of-stream.
func Sort(keys []SortKey) stream.Verb {
	var buf []*lrec.Record
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			sort.SliceStable(buf, func(i, j int) bool {
				return sortLess(buf[i], buf[j], keys)
			})
			out := make([]*lrec.Record, 0, len(buf)+1)
			out = append(out, buf...)
			out = append(out, nil)
			return out
		}
		buf = append(buf, rec)
		return nil
	})
}

func sortLess(a, b *lrec.Record, keys []SortKey) bool {
	for _, k := range keys {
		av, aok := a.Get(k.Field)
		bv, bok := b.Get(k.Field)
		var cmp int
		switch {
		case !aok && !bok:
			cmp = 0
		case !aok:
			cmp = -1
		case !bok:
			cmp = 1
		case k.Numeric:
			af, aerr := strconv.ParseFloat(av, 64)
			bf, berr := strconv.ParseFloat(bv, 64)
			switch {
			case aerr != nil && berr != nil:
				cmp = 0
			case aerr != nil:
				cmp = 1 // unparsable numeric values sort after parsable ones
			case berr != nil:
				cmp = -1
			case af < bf:
				cmp = -1
			case af > bf:
				cmp = 1
			default:
				cmp = 0
			}
		default:
			switch {
			case av < bv:
				cmp = -1
			case av > bv:
				cmp = 1
			default:
				cmp = 0
			}
		}
		if cmp == 0 {
			continue
		}
		if k.Descending {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}
