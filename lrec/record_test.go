package lrec

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutAppendsAndReplacesInPlace(t *testing.T) {
	r := New()
	r.Put("a", "1", false)
	r.Put("b", "2", false)
	r.Put("a", "99", false)
	require.Equal(t, []string{"a", "b"}, r.Keys())
	require.Equal(t, "99", r.GetOrEmpty("a"))
}

func TestGetMissingReturnsSentinel(t *testing.T) {
	r := New()
	v, ok := r.Get("nope")
	require.False(t, ok)
	require.Equal(t, "", v)
}

func TestRenamePreservesPosition(t *testing.T) {
	r := New()
	r.Put("a", "1", false)
	r.Put("b", "2", false)
	r.Put("c", "3", false)
	require.True(t, r.Rename("b", "z"))
	require.Equal(t, []string{"a", "z", "c"}, r.Keys())
}

func TestRenameRegexBackreference(t *testing.T) {
	r := New()
	r.Put("field_1", "x", false)
	r.Put("field_2", "y", false)
	re := regexp.MustCompile(`field_(\d+)`)
	n := r.RenameRegex(re, `col\1`)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"col1", "col2"}, r.Keys())
}

func TestRemoveDuringIteration(t *testing.T) {
	r := New()
	r.Put("a", "1", false)
	r.Put("b", "2", false)
	r.Put("c", "3", false)
	var seen []string
	r.Each(func(k, v string) bool {
		seen = append(seen, k)
		if k == "b" {
			r.Remove("b")
		}
		return true
	})
	require.Equal(t, []string{"a", "b", "c"}, seen)
	require.Equal(t, []string{"a", "c"}, r.Keys())
}

func TestReorderToFront(t *testing.T) {
	r := New()
	r.Put("a", "1", false)
	r.Put("b", "2", false)
	r.Put("c", "3", false)
	r.Reorder([]string{"c", "a"}, true)
	require.Equal(t, []string{"c", "a", "b"}, r.Keys())
}

func TestCloneIsIndependent(t *testing.T) {
	r := New()
	r.Put("a", "1", false)
	c := r.Clone()
	c.Put("a", "2", false)
	require.Equal(t, "1", r.GetOrEmpty("a"))
	require.Equal(t, "2", c.GetOrEmpty("a"))
}
