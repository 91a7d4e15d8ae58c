// Package stack provides the minimal in-memory stack-machine collaborator
// the spec treats as an external component (C6): its Execute(op, hint)
// interface applies one user opcode at a time to an in-memory stack,
// without pulling in the full STARK stack constraint system.
package stack

import (
	"fmt"

	"github.com/vybium/distaff-trace/internal/distafftrace/field"
	"github.com/vybium/distaff-trace/internal/distafftrace/opcodes"
)

// Stack is a reference stack-machine model: a growable slice of field
// elements with index 0 as the top, mirroring the teacher's
// VMState.Stack / StackPointer layering but reduced to just this spec's
// opcode set.
type Stack struct {
	items []field.Element
}

// New returns an empty stack.
func New() *Stack { return &Stack{} }

// Depth returns the number of elements currently on the stack.
func (s *Stack) Depth() int { return len(s.items) }

// Peek returns the element at depth i (0 = top) without popping.
func (s *Stack) Peek(i int) field.Element {
	if i >= len(s.items) {
		return field.Zero
	}
	return s.items[i]
}

func (s *Stack) push(v field.Element) { s.items = append([]field.Element{v}, s.items...) }

func (s *Stack) pop() field.Element {
	if len(s.items) == 0 {
		return field.Zero
	}
	v := s.items[0]
	s.items = s.items[1:]
	return v
}

func (s *Stack) ensure(n int) {
	for len(s.items) < n {
		s.items = append(s.items, field.Zero)
	}
}

// Execute applies one user opcode (with its optional hint) to the stack.
// Flow ops never reach here — only Hacc steps carry a meaningful UserOp.
func (s *Stack) Execute(op opcodes.UserOp, hint opcodes.OpHint) error {
	switch op {
	case opcodes.Noop:
		// no-op
	case opcodes.Assert:
		if !s.pop().Equal(field.One) {
			return fmt.Errorf("stack: assert failed")
		}
	case opcodes.AssertEq:
		a, b := s.pop(), s.pop()
		if !a.Equal(b) {
			return fmt.Errorf("stack: assert_eq failed: %v != %v", a, b)
		}
	case opcodes.Push:
		if hint.Kind != opcodes.HintPushValue {
			return fmt.Errorf("stack: push without a PushValue hint")
		}
		s.push(hint.Value)
	case opcodes.Read:
		s.ensure(1)
		s.push(s.pop())
	case opcodes.Read2:
		s.ensure(2)
		a, b := s.pop(), s.pop()
		s.push(b)
		s.push(a)
	case opcodes.Dup:
		s.ensure(1)
		s.push(s.Peek(0))
	case opcodes.Dup2:
		s.ensure(2)
		s.push(s.Peek(1))
	case opcodes.Dup4:
		s.ensure(4)
		s.push(s.Peek(3))
	case opcodes.Drop:
		s.ensure(1)
		s.pop()
	case opcodes.Drop4:
		s.ensure(4)
		for i := 0; i < 4; i++ {
			s.pop()
		}
	case opcodes.Swap:
		s.ensure(2)
		s.items[0], s.items[1] = s.items[1], s.items[0]
	case opcodes.Swap2:
		s.ensure(3)
		s.items[0], s.items[2] = s.items[2], s.items[0]
	case opcodes.Swap4:
		s.ensure(5)
		s.items[0], s.items[4] = s.items[4], s.items[0]
	case opcodes.Roll4:
		s.ensure(4)
		top := s.items[:4]
		rolled := append([]field.Element{top[3]}, top[0], top[1], top[2])
		copy(s.items[:4], rolled)
	case opcodes.Roll8:
		s.ensure(8)
		top := s.items[:8]
		rolled := append([]field.Element{top[7]}, top[0:7]...)
		copy(s.items[:8], rolled)
	case opcodes.Pick1:
		s.ensure(2)
		s.push(s.Peek(1))
	case opcodes.Pick2:
		s.ensure(3)
		s.push(s.Peek(2))
	case opcodes.Pick3:
		s.ensure(4)
		s.push(s.Peek(3))
	case opcodes.Add:
		s.ensure(2)
		a, b := s.pop(), s.pop()
		s.push(a.Add(b))
	case opcodes.Neg:
		s.ensure(1)
		s.push(s.pop().Neg())
	case opcodes.Mul:
		s.ensure(2)
		a, b := s.pop(), s.pop()
		s.push(a.Mul(b))
	case opcodes.Inv:
		s.ensure(1)
		s.push(s.pop().Inv())
	case opcodes.Not:
		s.ensure(1)
		v := s.pop()
		if v.IsZero() {
			s.push(field.One)
		} else {
			s.push(field.Zero)
		}
	case opcodes.And:
		s.ensure(2)
		a, b := s.pop(), s.pop()
		if isTrue(a) && isTrue(b) {
			s.push(field.One)
		} else {
			s.push(field.Zero)
		}
	case opcodes.Or:
		s.ensure(2)
		a, b := s.pop(), s.pop()
		if isTrue(a) || isTrue(b) {
			s.push(field.One)
		} else {
			s.push(field.Zero)
		}
	case opcodes.Eq:
		s.ensure(2)
		a, b := s.pop(), s.pop()
		if a.Equal(b) {
			s.push(field.One)
		} else {
			s.push(field.Zero)
		}
	case opcodes.Cmp:
		// One step of the bit-by-bit comparison macro; the reference
		// model only needs to leave the stack in a consistent shape for
		// the surrounding gt/lt post-amble, not emulate the full
		// constraint-level comparator.
		s.ensure(1)
	case opcodes.BinAcc:
		s.ensure(1)
	case opcodes.Choose:
		s.ensure(3)
		cond, a, b := s.pop(), s.pop(), s.pop()
		if isTrue(cond) {
			s.push(a)
		} else {
			s.push(b)
		}
	case opcodes.Choose2:
		s.ensure(5)
		cond := s.pop()
		a0, a1 := s.pop(), s.pop()
		b0, b1 := s.pop(), s.pop()
		if isTrue(cond) {
			s.push(a1)
			s.push(a0)
		} else {
			s.push(b1)
			s.push(b0)
		}
	case opcodes.RescR:
		// A Rescue round over the top of the stack is out of scope for
		// this reference model (the real Rescue state lives in the
		// decoder's sponge, not on the data stack); left as a no-op.
	case opcodes.Pad2:
		s.push(field.Zero)
		s.push(field.Zero)
	default:
		return fmt.Errorf("stack: unsupported opcode %v", op)
	}
	return nil
}

func isTrue(v field.Element) bool { return !v.IsZero() }
