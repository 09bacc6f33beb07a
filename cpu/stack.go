package cpu

import (
	"iter"
)

const (
	STACK_LIMIT = 16 // Maximum stack depth
)

// Stack is a fixed capacity stack of addresses.
type Stack struct {
	Data  [STACK_LIMIT]uint16
	Depth int
}

// Push pushes value, unless the stack is full.
func (s *Stack) Push(value uint16) (ok bool) {
	if s.Full() {
		return
	}

	s.Data[s.Depth] = value
	s.Depth++
	return true
}

func (s *Stack) Empty() bool {
	return s.Depth == 0
}

func (s *Stack) Full() bool {
	return s.Depth == STACK_LIMIT
}

func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[s.Depth-1], true
}

// Values iterates the stack from the bottom up.
func (s *Stack) Values() iter.Seq[uint16] {
	return func(yield func(value uint16) bool) {
		for _, value := range s.Data[:s.Depth] {
			if !yield(value) {
				return
			}
		}
	}
}
