package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedMapInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Put("c", 1)
	m.Put("a", 2)
	m.Put("b", 3)
	require.Equal(t, []string{"c", "a", "b"}, m.Keys())
}

func TestOrderedMapUpdatePreservesPosition(t *testing.T) {
	m := NewOrderedMap()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("a", 99)
	require.Equal(t, []string{"a", "b"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 99, v)
}

func TestOrderedMapDeleteDuringIteration(t *testing.T) {
	m := NewOrderedMap()
	for _, k := range []string{"a", "b", "c", "d"} {
		m.Put(k, k)
	}
	var seen []string
	m.Each(func(k string, _ interface{}) bool {
		seen = append(seen, k)
		if k == "b" {
			m.Delete("b")
		}
		return true
	})
	require.Equal(t, []string{"a", "b", "c", "d"}, seen)
	require.Equal(t, []string{"a", "c", "d"}, m.Keys())
}

func TestOrderedMapGrows(t *testing.T) {
	m := NewOrderedMap()
	for i := 0; i < 1000; i++ {
		m.Put(string(rune('a'))+string(rune(i)), i)
	}
	require.Equal(t, 1000, m.Len())
}

func TestOrderedSeq(t *testing.T) {
	s := NewOrderedSeq()
	s.Append(1)
	s.Append(2)
	s.Append(3)
	require.Equal(t, 3, s.Len())
	require.Equal(t, []interface{}{1, 2, 3}, s.ToSlice())
}

func TestOrderedSetFirstAppearanceOrder(t *testing.T) {
	s := NewOrderedSet()
	require.True(t, s.Add([]string{"x"}))
	require.True(t, s.Add([]string{"y"}))
	require.False(t, s.Add([]string{"x"}))

	var order []string
	s.Each(func(parts []string) bool {
		order = append(order, parts[0])
		return true
	})
	require.Equal(t, []string{"x", "y"}, order)
}
