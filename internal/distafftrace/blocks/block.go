// Package blocks implements the program block tree (C3): the immutable
// Span/Group/Switch/Loop sum type and its hash composition law, which the
// decoder must reproduce step-for-step at execution time.
package blocks

import (
	"fmt"

	"github.com/vybium/distaff-trace/internal/distafftrace/opcodes"
	"github.com/vybium/distaff-trace/internal/distafftrace/rescue"
)

// ProgramBlock is the closed sum {Span, Group, Switch, Loop}. It is sealed
// via the unexported isBlock method — no outside package may add variants.
type ProgramBlock interface {
	// Hash folds the block into state S, producing the 4-element state
	// the decoder's sponge holds immediately after executing the block.
	Hash(state rescue.State) rescue.State
	isBlock()
}

// StructureError reports a malformed block tree (§7, BlockStructureViolation).
type StructureError struct {
	Reason string
}

func (e *StructureError) Error() string { return "block structure violation: " + e.Reason }

// Span is an atomic, linear sequence of user opcodes.
type Span struct {
	Instructions []opcodes.UserOp
}

func (*Span) isBlock() {}

// spanCycleLen is the required span length modulus: every Span's length
// must be 15 mod 16 so that wrapping it in Begin/Tend keeps the decoder's
// 16-step cycle aligned (§4.5).
const spanCycleLen = 16
const spanCycleRemainder = 15

// NewSpan validates and constructs a Span. Per §4.5, every span's length
// must be congruent to 15 mod 16.
func NewSpan(instructions []opcodes.UserOp) (*Span, error) {
	if len(instructions) == 0 {
		return nil, &StructureError{Reason: "span must not be empty"}
	}
	if len(instructions)%spanCycleLen != spanCycleRemainder {
		return nil, &StructureError{Reason: fmt.Sprintf(
			"span length %d must be congruent to %d mod %d",
			len(instructions), spanCycleRemainder, spanCycleLen)}
	}
	cp := make([]opcodes.UserOp, len(instructions))
	copy(cp, instructions)
	return &Span{Instructions: cp}, nil
}

// Hash absorbs the span's opcodes into state, one HACC round per opcode
// with op_value always zero (§4.5).
func (s *Span) Hash(state rescue.State) rescue.State {
	return rescue.AbsorbOpcodes(state, opsToFieldElements(s.Instructions))
}

// Group is a non-empty ordered sequence of blocks; the first must be a
// Span, and two consecutive Spans are disallowed.
type Group struct {
	Blocks []ProgramBlock
}

func (*Group) isBlock() {}

// NewGroup validates and constructs a Group.
func NewGroup(blocks []ProgramBlock) (*Group, error) {
	if len(blocks) == 0 {
		return nil, &StructureError{Reason: "group must not be empty"}
	}
	if _, ok := blocks[0].(*Span); !ok {
		return nil, &StructureError{Reason: "group's first block must be a span"}
	}
	for i := 1; i < len(blocks); i++ {
		_, prevSpan := blocks[i-1].(*Span)
		_, curSpan := blocks[i].(*Span)
		if prevSpan && curSpan {
			return nil, &StructureError{Reason: fmt.Sprintf(
				"group blocks %d and %d are both spans; spans may not be adjacent", i-1, i)}
		}
	}
	cp := make([]ProgramBlock, len(blocks))
	copy(cp, blocks)
	return &Group{Blocks: cp}, nil
}

// Hash implements Group(children).hash(S) = hash_acc(S[0], hash_seq(children), 0).
func (g *Group) Hash(state rescue.State) rescue.State {
	return HashAcc(state[0], HashSeq(g.Blocks), zeroElement())
}

// Switch is a two-way branch; t_branch must open with an Assert span, and
// f_branch with a Not,Assert span.
type Switch struct {
	TBranch []ProgramBlock
	FBranch []ProgramBlock
}

func (*Switch) isBlock() {}

// NewSwitch validates and constructs a Switch.
func NewSwitch(tBranch, fBranch []ProgramBlock) (*Switch, error) {
	if len(tBranch) == 0 {
		return nil, &StructureError{Reason: "switch t_branch must not be empty"}
	}
	if len(fBranch) == 0 {
		return nil, &StructureError{Reason: "switch f_branch must not be empty"}
	}
	if err := requireLeadingOps(tBranch, "switch t_branch", opcodes.Assert); err != nil {
		return nil, err
	}
	if err := requireLeadingOps(fBranch, "switch f_branch", opcodes.Not, opcodes.Assert); err != nil {
		return nil, err
	}
	return &Switch{TBranch: copyBlocks(tBranch), FBranch: copyBlocks(fBranch)}, nil
}

// Hash implements Switch(t,f).hash(S) = hash_acc(S[0], hash_seq(t), hash_seq(f)).
func (sw *Switch) Hash(state rescue.State) rescue.State {
	return HashAcc(state[0], HashSeq(sw.TBranch), HashSeq(sw.FBranch))
}

// Loop is a pre-tested loop; body must open with an Assert span. Skip is
// auto-synthesized as the canonical [Not, Assert, Noop x13] span.
type Loop struct {
	Body []ProgramBlock
	Skip []ProgramBlock
}

func (*Loop) isBlock() {}

// NewLoop validates body and synthesizes the canonical skip span.
func NewLoop(body []ProgramBlock) (*Loop, error) {
	if len(body) == 0 {
		return nil, &StructureError{Reason: "loop body must not be empty"}
	}
	if err := requireLeadingOps(body, "loop body", opcodes.Assert); err != nil {
		return nil, err
	}
	skipSpan, err := NewSpan(canonicalSkipInstructions())
	if err != nil {
		// canonicalSkipInstructions is fixed and always 15 long; this
		// would indicate a bug in this package, not caller input.
		panic(err)
	}
	return &Loop{Body: copyBlocks(body), Skip: []ProgramBlock{skipSpan}}, nil
}

// Hash implements Loop(body).hash(S) = hash_acc(S[0], hash_seq(body), hash_seq(skip)).
func (l *Loop) Hash(state rescue.State) rescue.State {
	return HashAcc(state[0], HashSeq(l.Body), HashSeq(l.Skip))
}

func canonicalSkipInstructions() []opcodes.UserOp {
	ops := make([]opcodes.UserOp, 0, 15)
	ops = append(ops, opcodes.Not, opcodes.Assert)
	for i := 0; i < 13; i++ {
		ops = append(ops, opcodes.Noop)
	}
	return ops
}

func requireLeadingOps(body []ProgramBlock, what string, want ...opcodes.UserOp) error {
	span, ok := body[0].(*Span)
	if !ok {
		return &StructureError{Reason: what + "'s first block must be a span"}
	}
	if len(span.Instructions) < len(want) {
		return &StructureError{Reason: fmt.Sprintf(
			"%s's first span must begin with %v", what, want)}
	}
	for i, op := range want {
		if span.Instructions[i] != op {
			return &StructureError{Reason: fmt.Sprintf(
				"%s's first span must begin with %v", what, want)}
		}
	}
	return nil
}

func copyBlocks(blocks []ProgramBlock) []ProgramBlock {
	cp := make([]ProgramBlock, len(blocks))
	copy(cp, blocks)
	return cp
}
