package verbs

import (
	"sort"
	"strconv"

	"github.com/carlodf/mlrq/container"
)

// accumulator is one running statistic over a stream of float64 values,
// spec.md §4.G's group-by-then-accumulate family: "count, sum, mean,
// min, max, stddev, var, meaneb, mode, and a percentile family p{X}".
type accumulator interface {
	Feed(s string)
	Result() string
}

// newAccumulator constructs the accumulator named by kind (e.g. "sum",
// "p50"). A percentile accumulator built here keeps its own copy of the
// values; Stats1 does not use it for pNN specs and instead keeps one
// sharedPercentileBuffer per (group, field) in stats1State.pct, so
// p10,p50,p90 on the same field share one buffer.
func newAccumulator(kind string) accumulator {
	switch kind {
	case "count":
		return &countAcc{}
	case "sum":
		return &sumAcc{}
	case "mean":
		return &meanAcc{}
	case "min":
		return &minMaxAcc{isMax: false}
	case "max":
		return &minMaxAcc{isMax: true}
	case "stddev":
		return &varAcc{sqrt: true}
	case "var":
		return &varAcc{}
	case "meaneb":
		return &meanebAcc{}
	case "mode":
		return &modeAcc{counts: container.NewOrderedMap()}
	default:
		if isPercentileKind(kind) {
			return &percentileAcc{pct: parsePercentile(kind)}
		}
		return &countAcc{}
	}
}

func isPercentileKind(kind string) bool {
	if len(kind) < 2 || kind[0] != 'p' {
		return false
	}
	_, err := strconv.ParseFloat(kind[1:], 64)
	return err == nil
}

func parsePercentile(kind string) float64 {
	p, _ := strconv.ParseFloat(kind[1:], 64)
	return p
}

type countAcc struct{ n int }

func (a *countAcc) Feed(s string) { a.n++ }
func (a *countAcc) Result() string { return strconv.Itoa(a.n) }

type sumAcc struct {
	sum   float64
	isInt bool
	seen  bool
}

func (a *sumAcc) Feed(s string) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return
	}
	if !a.seen {
		a.isInt = true
		a.seen = true
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		a.isInt = false
	}
	a.sum += f
}

func (a *sumAcc) Result() string {
	if a.isInt {
		return strconv.FormatInt(int64(a.sum), 10)
	}
	return strconv.FormatFloat(a.sum, 'g', -1, 64)
}

type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) Feed(s string) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return
	}
	a.sum += f
	a.n++
}

func (a *meanAcc) Result() string {
	if a.n == 0 {
		return ""
	}
	return strconv.FormatFloat(a.sum/float64(a.n), 'g', -1, 64)
}

// minMaxAcc requires numeric input, per spec.md §4.G: "min/max require
// numeric input".
type minMaxAcc struct {
	isMax bool
	val   float64
	raw   string
	set   bool
}

func (a *minMaxAcc) Feed(s string) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return
	}
	if !a.set || (a.isMax && f > a.val) || (!a.isMax && f < a.val) {
		a.val = f
		a.raw = s
		a.set = true
	}
}

func (a *minMaxAcc) Result() string {
	if !a.set {
		return ""
	}
	return a.raw
}

type varAcc struct {
	sqrt       bool
	n          int
	sum, sumSq float64
}

func (a *varAcc) Feed(s string) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return
	}
	a.n++
	a.sum += f
	a.sumSq += f * f
}

func (a *varAcc) variance() float64 {
	if a.n < 2 {
		return 0
	}
	mean := a.sum / float64(a.n)
	return (a.sumSq - float64(a.n)*mean*mean) / float64(a.n-1)
}

func (a *varAcc) Result() string {
	if a.n < 2 {
		return ""
	}
	v := a.variance()
	if a.sqrt {
		v = sqrt(v)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// meanebAcc computes the standard error of the mean (the "error bar on
// mean" spec.md §4.G names).
type meanebAcc struct {
	varAcc
}

func (a *meanebAcc) Result() string {
	if a.n < 2 {
		return ""
	}
	eb := sqrt(a.variance() / float64(a.n))
	return strconv.FormatFloat(eb, 'g', -1, 64)
}

// modeAcc tracks the most frequently seen distinct text value; ties go
// to the first-seen value, per spec.md §4.G.
type modeAcc struct {
	counts    *container.OrderedMap
	bestKey   string
	bestCount int
}

func (a *modeAcc) Feed(s string) {
	n := 0
	if v, ok := a.counts.Get(s); ok {
		n = v.(int)
	}
	n++
	a.counts.Put(s, n)
	if n > a.bestCount {
		a.bestCount = n
		a.bestKey = s
	}
}

func (a *modeAcc) Result() string { return a.bestKey }

// percentileAcc buffers every value seen (a "sorted-keeper" per spec.md
// §4.G) and computes its percentile at Result time, sorting a copy of
// the values on each call. Stats1 shares one sharedPercentileBuffer
// across every pNN spec for the same (group, field) instead.
type percentileAcc struct {
	pct  float64
	vals []float64
}

func (a *percentileAcc) Feed(s string) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return
	}
	a.vals = append(a.vals, f)
}

func (a *percentileAcc) Result() string {
	if len(a.vals) == 0 {
		return ""
	}
	sorted := append([]float64(nil), a.vals...)
	sort.Float64s(sorted)
	idx := int(a.pct / 100.0 * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return strconv.FormatFloat(sorted[idx], 'g', -1, 64)
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	z := x
	for i := 0; i < 40; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// sharedPercentileBuffer lets every pNN spec for the same field share one
// slice of fed values instead of each keeping its own copy (each
// percentile call sorts a copy of that slice), satisfying spec.md §4.G's "percentile accumulators share one
// underlying sorted-keeper ... so asking for p10,p50,p90 costs one
// keeper, not three."
type sharedPercentileBuffer struct {
	vals []float64
}

func (b *sharedPercentileBuffer) feed(s string) {
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		b.vals = append(b.vals, f)
	}
}

func (b *sharedPercentileBuffer) percentile(pct float64) string {
	if len(b.vals) == 0 {
		return ""
	}
	sorted := append([]float64(nil), b.vals...)
	sort.Float64s(sorted)
	idx := int(pct / 100.0 * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return strconv.FormatFloat(sorted[idx], 'g', -1, 64)
}
