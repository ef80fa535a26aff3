package verbs

import (
	"strconv"
	"strings"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// UniqMode selects which of uniq's four behaviors to run, supplementing
// spec.md §4.G's plain "uniq" with the modes SPEC_FULL.md §4.K adds back
// in from original_source/c/mapping/mapper_uniq.c:
//
//   - UniqGroupBy: collapse records that agree on a set of fields,
//     keeping the first occurrence's other fields (mapper_uniq's -g).
//   - UniqWholeRecord: collapse records that are identical across every
//     field (mapper_uniq's -a, "all fields").
//   - UniqShowDuplicated: like UniqWholeRecord, but emit only records
//     that recur two or more times (mapper_uniq's -d).
//   - UniqShowUnique: like UniqWholeRecord, but emit only records that
//     occur exactly once (mapper_uniq's -u).
type UniqMode int

const (
	UniqGroupBy UniqMode = iota
	UniqWholeRecord
	UniqShowDuplicated
	UniqShowUnique
)

// Uniq implements the four uniq behaviors above. fields is the group-by
// key list for UniqGroupBy and is ignored by the whole-record modes.
// showCounts adds a trailing count field (mapper_uniq's -c); numericOnly
// switches the output in UniqGroupBy/UniqWholeRecord to carry only the
// group-by fields plus the count (mapper_uniq's -n), dropping the other
// fields from the first-seen record.
func Uniq(mode UniqMode, fields []string, showCounts, numericOnly bool) stream.Verb {
	var order []string
	firstRec := make(map[string]*lrec.Record)
	counts := make(map[string]int)
	keyFields := make(map[string][]string) // group-by field values, in `fields` order

	keyOf := func(rec *lrec.Record) (string, bool) {
		switch mode {
		case UniqGroupBy:
			parts := make([]string, len(fields))
			for i, f := range fields {
				v, ok := rec.Get(f)
				if !ok {
					return "", false
				}
				parts[i] = v
			}
			return strings.Join(parts, "\x1f"), true
		default: // whole-record-based modes
			return rec.String(), true
		}
	}

	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			var out []*lrec.Record
			for _, key := range order {
				n := counts[key]
				switch mode {
				case UniqShowDuplicated:
					if n < 2 {
						continue
					}
				case UniqShowUnique:
					if n != 1 {
						continue
					}
				}
				base := firstRec[key]
				var r *lrec.Record
				if numericOnly && mode == UniqGroupBy {
					r = lrec.New()
					for i, f := range fields {
						r.PutInferred(f, keyFields[key][i])
					}
				} else {
					r = base.Clone()
				}
				if showCounts {
					r.PutInferred("count", strconv.Itoa(n))
				}
				out = append(out, r)
			}
			return append(out, nil)
		}
		key, ok := keyOf(rec)
		if !ok {
			return nil
		}
		if _, seen := firstRec[key]; !seen {
			order = append(order, key)
			firstRec[key] = rec
			if mode == UniqGroupBy {
				parts := make([]string, len(fields))
				for i, f := range fields {
					parts[i], _ = rec.Get(f)
				}
				keyFields[key] = parts
			}
		}
		counts[key]++
		return nil
	})
}
