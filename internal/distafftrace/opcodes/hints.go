package opcodes

import "github.com/vybium/distaff-trace/internal/distafftrace/field"

// HintKind tags the variant held by an OpHint.
type HintKind uint8

const (
	HintNone HintKind = iota
	HintEqStart
	HintCmpStart
	HintRcStart
	HintPushValue
)

// OpHint is a step-indexed, prover-only non-deterministic input. The zero
// value is HintNone, matching the spec's "absent entries mean None".
type OpHint struct {
	Kind  HintKind
	N     int           // meaningful for CmpStart/RcStart: 4..=128
	Value field.Element // meaningful for PushValue
}

// None is the absent-hint sentinel.
var None = OpHint{Kind: HintNone}

// EqStart builds the hint emitted at the start of an equality check.
func EqStart() OpHint { return OpHint{Kind: HintEqStart} }

// CmpStart builds the hint emitted at the start of an n-bit comparison.
func CmpStart(n int) OpHint { return OpHint{Kind: HintCmpStart, N: n} }

// RcStart builds the hint emitted at the start of an n-bit range check.
func RcStart(n int) OpHint { return OpHint{Kind: HintRcStart, N: n} }

// PushValue builds the hint carrying the immediate a Push consumes.
func PushValue(v field.Element) OpHint { return OpHint{Kind: HintPushValue, Value: v} }

// HintMap is the step-indexed, sparse hint sidetable the assembler
// produces alongside the flat opcode vector.
type HintMap map[int]OpHint
