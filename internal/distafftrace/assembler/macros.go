package assembler

import (
	"math/big"

	"github.com/vybium/distaff-trace/internal/distafftrace/field"
	"github.com/vybium/distaff-trace/internal/distafftrace/opcodes"
)

// expand translates one token into opcodes (and, where relevant, hints)
// appended to b. It returns a non-nil *AssemblyError on failure; b is left
// unchanged on error (callers just skip to the next token).
func expand(b *builder, tok token) *AssemblyError {
	switch tok.base {
	case "noop":
		return expandNoArg(b, tok, opcodes.Noop)
	case "assert":
		return expandLiteralSuffix(b, tok, map[string][]opcodes.UserOp{
			"": {opcodes.Assert},
			"eq": {opcodes.AssertEq},
		})
	case "push":
		return expandPush(b, tok)
	case "read":
		return expandLiteralSuffix(b, tok, map[string][]opcodes.UserOp{
			"":   {opcodes.Read},
			"ab": {opcodes.Read2},
		})
	case "dup":
		return expandDup(b, tok)
	case "drop":
		return expandDrop(b, tok)
	case "pad":
		return expandPad(b, tok)
	case "pick":
		return expandPick(b, tok)
	case "swap":
		return expandSwap(b, tok)
	case "roll":
		return expandRoll(b, tok)
	case "add":
		return expandNoArg(b, tok, opcodes.Add)
	case "sub":
		return expandNoArg(b, tok, opcodes.Neg, opcodes.Add)
	case "mul":
		return expandNoArg(b, tok, opcodes.Mul)
	case "div":
		return expandNoArg(b, tok, opcodes.Inv, opcodes.Mul)
	case "neg":
		return expandNoArg(b, tok, opcodes.Neg)
	case "inv":
		return expandNoArg(b, tok, opcodes.Inv)
	case "not":
		return expandNoArg(b, tok, opcodes.Not)
	case "and":
		return expandNoArg(b, tok, opcodes.And)
	case "or":
		return expandNoArg(b, tok, opcodes.Or)
	case "eq":
		return expandEq(b, tok)
	case "gt":
		return expandCompare(b, tok, true)
	case "lt":
		return expandCompare(b, tok, false)
	case "rc":
		return expandRangeCheck(b, tok)
	case "isodd":
		return expandIsOdd(b, tok)
	case "choose":
		return expandChoose(b, tok)
	case "hash":
		return expandHash(b, tok)
	case "mpath":
		return expandMerklePath(b, tok)
	default:
		return errInvalidParam(tok.raw, b.len())
	}
}

// expandNoArg handles mnemonics that take no parameter at all.
func expandNoArg(b *builder, tok token, ops ...opcodes.UserOp) *AssemblyError {
	if tok.hasDot {
		return errExtraParam(tok.raw, b.len())
	}
	b.emit(ops...)
	return nil
}

// expandLiteralSuffix handles mnemonics whose dotted suffix (if any) is a
// fixed keyword rather than a number, e.g. assert.eq, read.ab.
func expandLiteralSuffix(b *builder, tok token, table map[string][]opcodes.UserOp) *AssemblyError {
	suffix := ""
	if tok.hasDot {
		suffix = tok.suffix
	}
	ops, ok := table[suffix]
	if !ok {
		if tok.hasDot {
			return errInvalidParam(tok.raw, b.len())
		}
		return errMissingParam(tok.raw, b.len())
	}
	b.emit(ops...)
	return nil
}

func expandPush(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		return errMissingParam(tok.raw, b.len())
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return errInvalidParam(tok.raw, b.len())
	}
	v, err := field.FromBigInt(new(big.Int).SetUint64(n))
	if err != nil {
		return errInvalidParamReason(tok.raw, b.len(), "push operand must be less than the field modulus")
	}
	b.push(v)
	return nil
}

func expandDup(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		b.emit(opcodes.Dup)
		return nil
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return errInvalidParam(tok.raw, b.len())
	}
	switch n {
	case 1:
		b.emit(opcodes.Dup)
	case 2:
		b.emit(opcodes.Dup2)
	case 3:
		b.emit(opcodes.Dup4, opcodes.Roll4, opcodes.Drop)
	case 4:
		b.emit(opcodes.Dup4)
	default:
		return errInvalidParamReason(tok.raw, b.len(), "dup.n is only defined for n in 1..4")
	}
	return nil
}

func expandDrop(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		b.emit(opcodes.Drop)
		return nil
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return errInvalidParam(tok.raw, b.len())
	}
	switch n {
	case 1:
		b.emit(opcodes.Drop)
	case 2:
		b.emit(opcodes.Drop, opcodes.Drop)
	case 3:
		b.emit(opcodes.Dup, opcodes.Drop4)
	case 4:
		b.emit(opcodes.Drop4)
	default:
		return errInvalidParamReason(tok.raw, b.len(), "drop.n is only defined for n in 1..4")
	}
	return nil
}

// pad.n (n in 1..8) pads the stack by n Pad2 steps; each Pad2 pushes two
// zero elements, the unit the rest of the macro set (gt.n's preamble, the
// hash macros) already builds padding out of.
func expandPad(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		return errMissingParam(tok.raw, b.len())
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return errInvalidParam(tok.raw, b.len())
	}
	if n < 1 || n > 8 {
		return errInvalidParamReason(tok.raw, b.len(), "pad.n is only defined for n in 1..8")
	}
	for i := uint64(0); i < n; i++ {
		b.emit(opcodes.Pad2)
	}
	return nil
}

func expandPick(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		return errMissingParam(tok.raw, b.len())
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return errInvalidParam(tok.raw, b.len())
	}
	switch n {
	case 1:
		b.emit(opcodes.Pick1)
	case 2:
		b.emit(opcodes.Pick2)
	case 3:
		b.emit(opcodes.Pick3)
	default:
		return errInvalidParamReason(tok.raw, b.len(), "pick.n is only defined for n in 1..3")
	}
	return nil
}

func expandSwap(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		return errMissingParam(tok.raw, b.len())
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return errInvalidParam(tok.raw, b.len())
	}
	switch n {
	case 1:
		b.emit(opcodes.Swap)
	case 2:
		b.emit(opcodes.Swap2)
	case 4:
		b.emit(opcodes.Swap4)
	default:
		return errInvalidParamReason(tok.raw, b.len(), "swap.n is only defined for n in {1, 2, 4}")
	}
	return nil
}

func expandRoll(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		return errMissingParam(tok.raw, b.len())
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return errInvalidParam(tok.raw, b.len())
	}
	switch n {
	case 4:
		b.emit(opcodes.Roll4)
	case 8:
		b.emit(opcodes.Roll8)
	default:
		return errInvalidParamReason(tok.raw, b.len(), "roll.n is only defined for n in {4, 8}")
	}
	return nil
}

func expandEq(b *builder, tok token) *AssemblyError {
	if tok.hasDot {
		return errExtraParam(tok.raw, b.len())
	}
	b.setHint(b.len(), opcodes.EqStart())
	b.emit(opcodes.Read, opcodes.Eq)
	return nil
}

// powerOfTwo returns 2^(n-1) as a field element, the comparison base used by
// both gt.n/lt.n and rc.n/isodd.n.
func powerOfTwo(nMinusOne uint64) field.Element {
	v := new(big.Int).Lsh(big.NewInt(1), uint(nMinusOne))
	e, err := field.FromBigInt(v)
	if err != nil {
		// Unreachable for the n ranges this macro set allows (n <= 128
		// keeps 2^(n-1) well inside the 128-bit-ish field modulus for
		// the n actually accepted below), kept only to satisfy the
		// field API's error return.
		return field.Zero
	}
	return e
}

func parseCmpParam(b *builder, tok token) (uint64, *AssemblyError) {
	if !tok.hasDot {
		return 0, errMissingParam(tok.raw, b.len())
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return 0, errInvalidParam(tok.raw, b.len())
	}
	if n < 4 || n > 128 {
		return 0, errInvalidParamReason(tok.raw, b.len(), "n must be in 4..128")
	}
	return n, nil
}

// expandCompare implements gt.n / lt.n (§4.2): a fixed preamble, a push of
// the comparison base, n rounds of Cmp driven by a CmpStart hint, and a
// post-amble that differs only in whether it re-rolls the final result.
func expandCompare(b *builder, tok token, greaterThan bool) *AssemblyError {
	n, err := parseCmpParam(b, tok)
	if err != nil {
		return err
	}
	b.emit(opcodes.Pad2, opcodes.Pad2, opcodes.Pad2, opcodes.Dup)
	b.push(powerOfTwo(n - 1))
	b.setHint(b.len(), opcodes.CmpStart(int(n)))
	for i := uint64(0); i < n; i++ {
		b.emit(opcodes.Cmp)
	}
	b.emit(opcodes.Drop4, opcodes.Pad2, opcodes.Swap4, opcodes.Roll4, opcodes.AssertEq, opcodes.AssertEq)
	if greaterThan {
		b.emit(opcodes.Roll4)
	}
	b.emit(opcodes.Dup, opcodes.Drop4)
	return nil
}

// expandRangeCheck implements rc.n (§4.2): proves the top stack value fits
// in n bits by folding its bits back together with BinAcc and comparing
// against the original.
func expandRangeCheck(b *builder, tok token) *AssemblyError {
	n, err := parseCmpParam(b, tok)
	if err != nil {
		return err
	}
	b.emit(opcodes.Pad2)
	b.push(powerOfTwo(n - 1))
	b.setHint(b.len(), opcodes.RcStart(int(n)))
	for i := uint64(0); i < n; i++ {
		b.emit(opcodes.BinAcc)
	}
	b.emit(opcodes.Drop, opcodes.Drop)
	b.setHint(b.len(), opcodes.EqStart())
	b.emit(opcodes.Read, opcodes.Eq)
	return nil
}

// expandIsOdd implements isodd.n (§4.2): identical bit decomposition to
// rc.n, but finishes by reading off the low bit instead of re-asserting the
// full value's equality.
func expandIsOdd(b *builder, tok token) *AssemblyError {
	n, err := parseCmpParam(b, tok)
	if err != nil {
		return err
	}
	b.emit(opcodes.Pad2)
	b.push(powerOfTwo(n - 1))
	b.setHint(b.len(), opcodes.RcStart(int(n)))
	for i := uint64(0); i < n; i++ {
		b.emit(opcodes.BinAcc)
	}
	b.emit(opcodes.Swap2, opcodes.AssertEq, opcodes.Drop)
	return nil
}

func expandChoose(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		b.emit(opcodes.Choose)
		return nil
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok || n != 2 {
		return errInvalidParamReason(tok.raw, b.len(), "choose.n is only defined for n == 2")
	}
	b.emit(opcodes.Choose2)
	return nil
}

// hashPreamble returns, for an n-element hash input (n in 1..4), the Pad2
// steps needed to fill the remaining slots of the 4-wide sponge rate before
// the round cycle starts.
func hashPreamble(n uint64) []opcodes.UserOp {
	ops := make([]opcodes.UserOp, 0, 4-n)
	for i := n; i < 4; i++ {
		ops = append(ops, opcodes.Pad2)
	}
	return ops
}

func expandHash(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		return errMissingParam(tok.raw, b.len())
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return errInvalidParam(tok.raw, b.len())
	}
	if n < 1 || n > 4 {
		return errInvalidParamReason(tok.raw, b.len(), "hash.n is only defined for n in 1..4")
	}
	b.emit(hashPreamble(n)...)
	b.padTo(16)
	for i := 0; i < 10; i++ {
		b.emit(opcodes.RescR)
	}
	b.emit(opcodes.Drop4)
	return nil
}

// merkleSubCycle is the fixed 32-opcode repeating unit of mpath.n: a pair of
// ten-round hash rounds bracketing the sibling read, swap and re-pad that
// walk one level of the Merkle path, followed by the Choose2 that selects
// which child goes on the left for the next level. Each half is 16 opcodes
// long, so both ten-round runs start at a 16-aligned index.
func merkleSubCycle() []opcodes.UserOp {
	ops := make([]opcodes.UserOp, 0, 32)
	for i := 0; i < 10; i++ {
		ops = append(ops, opcodes.RescR)
	}
	ops = append(ops, opcodes.Drop4, opcodes.Read2, opcodes.Swap2, opcodes.Pad2, opcodes.Pad2, opcodes.Noop)
	for i := 0; i < 10; i++ {
		ops = append(ops, opcodes.RescR)
	}
	ops = append(ops, opcodes.Drop4, opcodes.Choose2, opcodes.Read2, opcodes.Dup4, opcodes.Pad2, opcodes.Noop)
	return ops
}

func expandMerklePath(b *builder, tok token) *AssemblyError {
	if !tok.hasDot {
		return errMissingParam(tok.raw, b.len())
	}
	n, ok := parseUintParam(tok.suffix)
	if !ok {
		return errInvalidParam(tok.raw, b.len())
	}
	if n < 2 || n > 256 {
		return errInvalidParamReason(tok.raw, b.len(), "mpath.n is only defined for n in 2..256")
	}
	b.emit(opcodes.Read2, opcodes.Dup4, opcodes.Pad2)
	b.padTo(16)
	cycle := merkleSubCycle()
	for i := uint64(0); i < n-2; i++ {
		b.emit(cycle...)
	}
	b.emit(cycle[:28]...)
	return nil
}
