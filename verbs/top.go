package verbs

import (
	"sort"
	"strconv"
	"strings"

	"github.com/carlodf/mlrq/container"
	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/recctx"
	"github.com/carlodf/mlrq/stream"
)

// Top keeps the n largest (or, if smallest, the n smallest) values per
// value field within each group-by tuple, spec.md §4.G's "top". Like
// stats1 it must see a group's full set of values before it can decide
// the top n, so it buffers per group and flushes at end-of-stream,
// emitting one output record per rank (1..n) per group, with columns
// `{field}_top` holding that rank's value.
func Top(groupBy []string, valueFields []string, n int, smallest bool) stream.Verb {
	groups := container.NewOrderedSet()
	buckets := make(map[string]map[string][]float64)
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			var out []*lrec.Record
			groups.Each(func(parts []string) bool {
				key := strings.Join(parts, "\x1f")
				byField := buckets[key]
				for rank := 0; rank < n; rank++ {
					r := lrec.New()
					for i, f := range groupBy {
						r.PutInferred(f, parts[i])
					}
					r.PutInferred("top_idx", strconv.Itoa(rank+1))
					for _, f := range valueFields {
						vals := append([]float64(nil), byField[f]...)
						sort.Float64s(vals)
						if !smallest {
							for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
								vals[i], vals[j] = vals[j], vals[i]
							}
						}
						if rank < len(vals) {
							r.PutInferred(f+"_top", strconv.FormatFloat(vals[rank], 'g', -1, 64))
						} else {
							r.PutInferred(f+"_top", "")
						}
					}
					out = append(out, r)
				}
				return true
			})
			return append(out, nil)
		}
		parts := make([]string, len(groupBy))
		for i, f := range groupBy {
			v, ok := rec.Get(f)
			if !ok {
				return nil
			}
			parts[i] = v
		}
		groups.Add(parts)
		key := strings.Join(parts, "\x1f")
		if buckets[key] == nil {
			buckets[key] = make(map[string][]float64)
		}
		for _, f := range valueFields {
			v, ok := rec.Get(f)
			if !ok {
				continue
			}
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			buckets[key][f] = append(buckets[key][f], x)
		}
		return nil
	})
}

// Histogram bins each of valueFields into nbins equal-width buckets
// between lo and hi, spec.md §4.G's "histogram", emitting nbins records
// at end-of-stream with bin_lo/bin_hi plus one count column per field.
func Histogram(valueFields []string, lo, hi float64, nbins int) stream.Verb {
	counts := make(map[string][]int)
	for _, f := range valueFields {
		counts[f] = make([]int, nbins)
	}
	width := (hi - lo) / float64(nbins)
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			out := make([]*lrec.Record, 0, nbins+1)
			for b := 0; b < nbins; b++ {
				r := lrec.New()
				r.PutInferred("bin_lo", strconv.FormatFloat(lo+float64(b)*width, 'g', -1, 64))
				r.PutInferred("bin_hi", strconv.FormatFloat(lo+float64(b+1)*width, 'g', -1, 64))
				for _, f := range valueFields {
					r.PutInferred(f+"_count", strconv.Itoa(counts[f][b]))
				}
				out = append(out, r)
			}
			return append(out, nil)
		}
		for _, f := range valueFields {
			v, ok := rec.Get(f)
			if !ok {
				continue
			}
			x, err := strconv.ParseFloat(v, 64)
			if err != nil || x < lo || x > hi || width <= 0 {
				continue
			}
			b := int((x - lo) / width)
			if b >= nbins {
				b = nbins - 1
			}
			counts[f][b]++
		}
		return nil
	})
}

// MergeFields combines a list of input fields into one accumulator set
// per record (not per group), spec.md §4.G's "merge-fields": e.g.
// merge-fields -a sum,mean -f in_a,in_b,in_c -o total collapses the
// three input fields into total_sum, total_mean per record.
func MergeFields(inputFields []string, accNames []string, outName string, keep bool) stream.Verb {
	return stream.VerbFunc(func(rec *lrec.Record, ctx recctx.Context) []*lrec.Record {
		if rec == nil {
			return []*lrec.Record{nil}
		}
		accs := make(map[string]accumulator, len(accNames))
		for _, a := range accNames {
			accs[a] = newAccumulator(a)
		}
		for _, f := range inputFields {
			v, ok := rec.Get(f)
			if !ok {
				continue
			}
			for _, a := range accNames {
				accs[a].Feed(v)
			}
			if !keep {
				rec.Remove(f)
			}
		}
		for _, a := range accNames {
			rec.PutInferred(outName+"_"+a, accs[a].Result())
		}
		return []*lrec.Record{rec}
	})
}
