package distafftrace

import (
	"github.com/vybium/distaff-trace/internal/distafftrace/blocks"
	"github.com/vybium/distaff-trace/internal/distafftrace/field"
	"github.com/vybium/distaff-trace/internal/distafftrace/opcodes"
	"github.com/vybium/distaff-trace/internal/distafftrace/rescue"
)

// FieldElement is a value in the distaff field. Aliased from internal/field
// so callers never need to import an internal package to hold one.
type FieldElement = field.Element

// FieldZero and FieldOne are the field's additive/multiplicative identities.
var (
	FieldZero = field.Zero
	FieldOne  = field.One
)

// UserOp is the 7-bit VM-visible opcode tag.
type UserOp = opcodes.UserOp

// FlowOp is the 3-bit control-flow tag.
type FlowOp = opcodes.FlowOp

// OpHint is a step-indexed, prover-only non-deterministic input.
type OpHint = opcodes.OpHint

// HintMap is the sparse, step-indexed hint sidetable Assemble produces.
type HintMap = opcodes.HintMap

// HintKind tags the variant held by an OpHint.
type HintKind = opcodes.HintKind

// The OpHint variants: no hint, the start of an equality check, the start
// of an n-bit comparison, the start of an n-bit range check, and the
// immediate value a Push consumes.
const (
	HintNone      = opcodes.HintNone
	HintEqStart   = opcodes.HintEqStart
	HintCmpStart  = opcodes.HintCmpStart
	HintRcStart   = opcodes.HintRcStart
	HintPushValue = opcodes.HintPushValue
)

// ProgramBlock is the closed Span/Group/Switch/Loop sum type.
type ProgramBlock = blocks.ProgramBlock

// Noop is the identity opcode: every padding macro and idle span slot uses
// it, and it's the only opcode allowed outside a Hacc-flagged step. Assert
// and Not are re-exported alongside it since they're the opcodes
// Switch/Loop's leading spans are required to begin with.
var (
	Noop   = opcodes.Noop
	Assert = opcodes.Assert
	Not    = opcodes.Not
)

// Span, Group, Switch, and Loop are the four ProgramBlock variants.
type (
	Span   = blocks.Span
	Group  = blocks.Group
	Switch = blocks.Switch
	Loop   = blocks.Loop
)

// NewSpan, NewGroup, NewSwitch, and NewLoop construct and validate the
// corresponding block variant, returning a *TraceError (ErrBlockStructure)
// on a malformed tree instead of the internal package's own error type.
func NewSpan(instructions []UserOp) (*Span, error) {
	s, err := blocks.NewSpan(instructions)
	if err != nil {
		return nil, wrapErr(ErrBlockStructure, "invalid span", err)
	}
	return s, nil
}

func NewGroup(children []ProgramBlock) (*Group, error) {
	g, err := blocks.NewGroup(children)
	if err != nil {
		return nil, wrapErr(ErrBlockStructure, "invalid group", err)
	}
	return g, nil
}

func NewSwitch(tBranch, fBranch []ProgramBlock) (*Switch, error) {
	sw, err := blocks.NewSwitch(tBranch, fBranch)
	if err != nil {
		return nil, wrapErr(ErrBlockStructure, "invalid switch", err)
	}
	return sw, nil
}

func NewLoop(body []ProgramBlock) (*Loop, error) {
	l, err := blocks.NewLoop(body)
	if err != nil {
		return nil, wrapErr(ErrBlockStructure, "invalid loop", err)
	}
	return l, nil
}

// HashSeq folds a list of blocks left-to-right from the zero state and
// returns the resulting digest's first element.
func HashSeq(list []ProgramBlock) FieldElement {
	return blocks.HashSeq(list)
}

// SpongeState is the 4-element Rescue sponge state a ProgramBlock's Hash
// method folds itself into.
type SpongeState = rescue.State

// SpongeZero is the initial/reset sponge state (0,0,0,0) — the state every
// top-level ProgramBlock.Hash call should start from.
var SpongeZero = rescue.Zero
