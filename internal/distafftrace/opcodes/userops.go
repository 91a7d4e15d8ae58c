package opcodes

import "fmt"

// UserOp is the 7-bit VM-visible opcode tag, split by the decoder into 5
// low bits (ld_op_bits) and 2 high bits (hd_op_bits).
type UserOp uint8

const (
	Noop UserOp = iota
	Assert
	AssertEq
	Push
	Read
	Read2
	Dup
	Dup2
	Dup4
	Drop
	Drop4
	Swap
	Swap2
	Swap4
	Roll4
	Roll8
	Pick1
	Pick2
	Pick3
	Add
	Neg
	Mul
	Inv
	Not
	And
	Or
	Eq
	Cmp
	BinAcc
	Choose
	Choose2
	RescR
	Pad2
)

var userOpNames = [...]string{
	Noop: "noop", Assert: "assert", AssertEq: "asserteq", Push: "push",
	Read: "read", Read2: "read2", Dup: "dup", Dup2: "dup2", Dup4: "dup4",
	Drop: "drop", Drop4: "drop4", Swap: "swap", Swap2: "swap2", Swap4: "swap4",
	Roll4: "roll4", Roll8: "roll8", Pick1: "pick1", Pick2: "pick2", Pick3: "pick3",
	Add: "add", Neg: "neg", Mul: "mul", Inv: "inv", Not: "not", And: "and",
	Or: "or", Eq: "eq", Cmp: "cmp", BinAcc: "binacc", Choose: "choose",
	Choose2: "choose2", RescR: "rescr", Pad2: "pad2",
}

func (u UserOp) String() string {
	if int(u) < len(userOpNames) && userOpNames[u] != "" {
		return userOpNames[u]
	}
	return fmt.Sprintf("userop(%d)", uint8(u))
}

// Bits decomposes u into the decoder's ld_op_bits[0..5] (low 5 bits) and
// hd_op_bits[0..2] (high 2 bits), both least-significant bit first.
func (u UserOp) Bits() (ld [5]uint8, hd [2]uint8) {
	v := uint8(u)
	for i := 0; i < 5; i++ {
		ld[i] = (v >> uint(i)) & 1
	}
	for i := 0; i < 2; i++ {
		hd[i] = (v >> uint(5+i)) & 1
	}
	return ld, hd
}

// FromBits recomposes a UserOp from ld_op_bits/hd_op_bits, the inverse of
// Bits — used by the bit-decomposition round-trip test.
func FromBits(ld [5]uint8, hd [2]uint8) UserOp {
	var v uint8
	for i := 0; i < 5; i++ {
		v |= ld[i] << uint(i)
	}
	for i := 0; i < 2; i++ {
		v |= hd[i] << uint(5+i)
	}
	return UserOp(v)
}
