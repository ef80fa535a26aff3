package verbs

import (
	"math"
	"strconv"

	"github.com/carlodf/mlrq/lrec"
	"github.com/carlodf/mlrq/stream"
)

// Stats2Spec names one bivariate accumulator over a pair of value fields,
// e.g. {XField: "u", YField: "v", Accumulator: "corr"}. Accumulator is one
// of "cov" (sample covariance), "corr" (Pearson correlation), "r2"
// (coefficient of determination of the OLS fit), or "linreg-ols" (which
// emits three columns: slope m, intercept b, and the point count n).
type Stats2Spec struct {
	XField, YField string
	Accumulator    string
}

// pairAccumulator keeps the six running sums bivariate statistics are
// built from: n, sum(x), sum(y), sum(x*x), sum(y*y), sum(x*y). Every
// stats2 accumulator (cov, corr, r2, linreg-ols) is a closed-form function
// of these same six sums, so one running-sums struct serves all of them
// -- the same "accumulate once, derive many" shape as stats1's
// sharedPercentileBuffer for the p{X} family.
type pairAccumulator struct {
	n                   float64
	sumX, sumY          float64
	sumX2, sumY2, sumXY float64
}

func (p *pairAccumulator) feed(x, y float64) {
	p.n++
	p.sumX += x
	p.sumY += y
	p.sumX2 += x * x
	p.sumY2 += y * y
	p.sumXY += x * y
}

// ols returns the ordinary-least-squares slope and intercept fitting y =
// m*x + b, grounded on original_source/c/lib/mlrmath.h's bivariate moment
// approach (centered sums rather than the naive two-pass formula).
func (p *pairAccumulator) ols() (m, b float64) {
	if p.n == 0 {
		return math.NaN(), math.NaN()
	}
	meanX := p.sumX / p.n
	meanY := p.sumY / p.n
	varX := p.sumX2/p.n - meanX*meanX
	covXY := p.sumXY/p.n - meanX*meanY
	if varX == 0 {
		return math.NaN(), math.NaN()
	}
	m = covXY / varX
	b = meanY - m*meanX
	return m, b
}

func (p *pairAccumulator) covariance() float64 {
	if p.n < 2 {
		return math.NaN()
	}
	return (p.sumXY - p.sumX*p.sumY/p.n) / (p.n - 1)
}

func (p *pairAccumulator) correlation() float64 {
	if p.n < 2 {
		return math.NaN()
	}
	cov := p.sumXY - p.sumX*p.sumY/p.n
	varX := p.sumX2 - p.sumX*p.sumX/p.n
	varY := p.sumY2 - p.sumY*p.sumY/p.n
	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return math.NaN()
	}
	return cov / denom
}

func (p *pairAccumulator) rSquared() float64 {
	r := p.correlation()
	if math.IsNaN(r) {
		return math.NaN()
	}
	return r * r
}

type stats2State struct {
	pairs map[string]*pairAccumulator // keyed by "xfield\x1fyfield"
}

// Stats2 implements the stats2 verb: per group-by-field-tuple bivariate
// statistics over pairs of value fields, spec.md §4.G, synthesizing
// `{x}_{y}_{accumulator}` output columns at end-of-stream (linreg-ols
// synthesizes `{x}_{y}_m`, `{x}_{y}_b`, `{x}_{y}_n` instead of a single
// column, since a regression fit isn't a scalar).
func Stats2(groupBy []string, specs []Stats2Spec) stream.Verb {
	ga := newGroupAccumulator(
		groupBy,
		func() interface{} {
			return &stats2State{pairs: make(map[string]*pairAccumulator)}
		},
		func(stIface interface{}, rec *lrec.Record) {
			st := stIface.(*stats2State)
			for _, spec := range specs {
				xs, ok := rec.Get(spec.XField)
				if !ok {
					continue
				}
				ys, ok := rec.Get(spec.YField)
				if !ok {
					continue
				}
				x, err := strconv.ParseFloat(xs, 64)
				if err != nil {
					continue
				}
				y, err := strconv.ParseFloat(ys, 64)
				if err != nil {
					continue
				}
				key := spec.XField + "\x1f" + spec.YField
				pa, ok := st.pairs[key]
				if !ok {
					pa = &pairAccumulator{}
					st.pairs[key] = pa
				}
				pa.feed(x, y)
			}
		},
		func(stIface interface{}, groupVals, groupBy []string) *lrec.Record {
			st := stIface.(*stats2State)
			out := lrec.New()
			for i, f := range groupBy {
				out.PutInferred(f, groupVals[i])
			}
			for _, spec := range specs {
				pa := st.pairs[spec.XField+"\x1f"+spec.YField]
				prefix := spec.XField + "_" + spec.YField + "_"
				if pa == nil {
					pa = &pairAccumulator{}
				}
				switch spec.Accumulator {
				case "cov":
					out.PutInferred(prefix+"cov", formatFloat(pa.covariance()))
				case "corr":
					out.PutInferred(prefix+"corr", formatFloat(pa.correlation()))
				case "r2":
					out.PutInferred(prefix+"r2", formatFloat(pa.rSquared()))
				case "linreg-ols":
					m, b := pa.ols()
					out.PutInferred(prefix+"m", formatFloat(m))
					out.PutInferred(prefix+"b", formatFloat(b))
					out.PutInferred(prefix+"n", strconv.FormatFloat(pa.n, 'g', -1, 64))
				}
			}
			return out
		},
	)
	return stream.VerbFunc(ga.process)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
