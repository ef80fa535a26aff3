package verbs

import (
	"testing"

	"github.com/carlodf/mlrq/lrec"
	"github.com/stretchr/testify/require"
)

// fakeLeftIterator is a minimal input.RecordIterator over a fixed slice,
// standing in for a real format reader in tests that only care about
// Join's own matching logic.
type fakeLeftIterator struct {
	recs []*lrec.Record
	i    int
}

func (f *fakeLeftIterator) Next() bool {
	if f.i >= len(f.recs) {
		return false
	}
	f.i++
	return true
}
func (f *fakeLeftIterator) Record() *lrec.Record { return f.recs[f.i-1] }
func (f *fakeLeftIterator) SourceName() string   { return "left" }
func (f *fakeLeftIterator) Err() error            { return nil }
func (f *fakeLeftIterator) Close() error          { return nil }

func TestJoinInnerMatchesOnKey(t *testing.T) {
	left := &fakeLeftIterator{recs: []*lrec.Record{
		rec("id", "1", "name", "alice"),
		rec("id", "2", "name", "bob"),
	}}
	v := Join(left, []string{"id"}, JoinInner, "", "")
	right := []*lrec.Record{
		rec("id", "1", "amount", "10"),
		rec("id", "3", "amount", "20"),
	}
	out := runVerb(v, right)
	require.Len(t, out, 1)
	require.Equal(t, "alice", out[0].GetOrEmpty("name"))
	require.Equal(t, "10", out[0].GetOrEmpty("amount"))
}

func TestJoinFullEmitsUnmatchedBothSides(t *testing.T) {
	left := &fakeLeftIterator{recs: []*lrec.Record{
		rec("id", "1", "name", "alice"),
		rec("id", "2", "name", "bob"),
	}}
	v := Join(left, []string{"id"}, JoinFull, "", "")
	right := []*lrec.Record{
		rec("id", "1", "amount", "10"),
		rec("id", "3", "amount", "20"),
	}
	out := runVerb(v, right)
	// matched: id=1; unmatched right: id=3; unmatched left: id=2
	require.Len(t, out, 3)
	ids := map[string]bool{}
	for _, r := range out {
		ids[r.GetOrEmpty("id")] = true
	}
	require.True(t, ids["1"])
	require.True(t, ids["2"])
	require.True(t, ids["3"])
}
