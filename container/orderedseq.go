package container

// seqNode is one link of an OrderedSeq.
type seqNode struct {
	value interface{}
	next  *seqNode
}

// OrderedSeq is a singly linked sequence with O(1) head/tail append, O(1)
// length tracking, and forward iteration, per spec.md §4.C.
type OrderedSeq struct {
	head, tail *seqNode
	length     int
}

// NewOrderedSeq constructs an empty sequence.
func NewOrderedSeq() *OrderedSeq { return &OrderedSeq{} }

// Append adds value to the tail in O(1).
func (s *OrderedSeq) Append(value interface{}) {
	n := &seqNode{value: value}
	if s.tail == nil {
		s.head = n
		s.tail = n
	} else {
		s.tail.next = n
		s.tail = n
	}
	s.length++
}

// Len reports the number of elements.
func (s *OrderedSeq) Len() int { return s.length }

// Each calls f for every element in order. If f returns false, iteration
// stops early.
func (s *OrderedSeq) Each(f func(value interface{}) bool) {
	for n := s.head; n != nil; n = n.next {
		if !f(n.value) {
			return
		}
	}
}

// ToSlice materializes the sequence as a slice.
func (s *OrderedSeq) ToSlice() []interface{} {
	out := make([]interface{}, 0, s.length)
	s.Each(func(v interface{}) bool {
		out = append(out, v)
		return true
	})
	return out
}
