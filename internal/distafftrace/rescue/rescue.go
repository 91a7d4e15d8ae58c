// Package rescue implements the 4-element Rescue sponge the decoder uses as
// its hash accumulator (HACC). Round constants and the MDS matrix are
// derived deterministically at package init from a small seed, following
// the teacher's "Grain LFSR parameter generation / Cauchy MDS construction"
// philosophy (internal/.../core/poseidon_enhanced.go) rather than shipping
// large precomputed constant tables.
package rescue

import (
	"math/big"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/distaff-trace/internal/distafftrace/field"
)

// Width is the sponge state size.
const Width = 4

// Rounds is the number of distinct round-constant rows, one per position in
// a 16-step opcode cycle (ark_idx = (step-1) mod 16).
const Rounds = 16

// sboxAlpha is the Rescue S-box exponent. gcd(sboxAlpha, p-1) == 1 is
// required for the inverse S-box to exist; alpha=3 satisfies this for the
// distaff field modulus.
const sboxAlpha = 3

var sboxAlphaInv = field.ModInverseExponent(sboxAlpha)

// ark holds, for each of the 16 cycle positions, 8 round-constant field
// elements: the first 4 are added before the forward S-box, the last 4
// before the inverse S-box (§4.4 steps 1 and 5).
var ark = generateRoundConstants()

// mds is the fixed 4x4 MDS matrix applied after each half-round.
var mds = generateCauchyMDS()

// State is the 4-element sponge.
type State [Width]field.Element

// Zero is the initial/reset sponge state (0,0,0,0).
var Zero = State{field.Zero, field.Zero, field.Zero, field.Zero}

func addConstants(s *State, row []field.Element) {
	for i := 0; i < Width; i++ {
		s[i] = s[i].Add(row[i])
	}
}

func applySBox(s *State) {
	for i := 0; i < Width; i++ {
		s[i] = s[i].ExpSmall(sboxAlpha)
	}
}

func applyInvSBox(s *State) {
	for i := 0; i < Width; i++ {
		s[i] = s[i].Exp(sboxAlphaInv)
	}
}

func applyMDS(s State) State {
	var out State
	for i := 0; i < Width; i++ {
		acc := field.Zero
		for j := 0; j < Width; j++ {
			acc = acc.Add(s[j].Mul(mds[i][j]))
		}
		out[i] = acc
	}
	return out
}

// HaccRound performs one hash-accumulator round (§4.4): two Rescue
// half-rounds with opCode injected into slot 0 and opValue into slot 1
// between them. arkIdx selects the round-constant row, (step-1) mod 16 in
// the decoder's own indexing.
func HaccRound(state State, arkIdx int, opCode, opValue field.Element) State {
	row := ark[arkIdx%Rounds]

	s := state
	addConstants(&s, row[:Width])
	applySBox(&s)
	s = applyMDS(s)

	s[0] = s[0].Add(opCode)
	s[1] = s[1].Add(opValue)

	addConstants(&s, row[Width:])
	applyInvSBox(&s)
	s = applyMDS(s)

	return s
}

// AbsorbOpcodes folds a span's instructions into state, one HACC round per
// opcode with op_value always zero (§4.5) and ark_idx cycling i mod 16 —
// the same sequence decode_op produces when called 16k+i steps after a
// Begin, since hash_seq always starts a fresh sponge at (0,0,0,0).
func AbsorbOpcodes(state State, opcodes []field.Element) State {
	s := state
	for i, op := range opcodes {
		s = HaccRound(s, i%Rounds, op, field.Zero)
	}
	return s
}

// generateRoundConstants derives the 16x8 constant table from a SHA3-256
// based stream, mirroring the teacher's Grain-LFSR-at-init approach but
// using a simpler, equally deterministic construction suited to a 4-element
// state: squeeze successive digest blocks and reduce each 16-byte chunk
// into a field element.
func generateRoundConstants() [Rounds][2 * Width]field.Element {
	var table [Rounds][2 * Width]field.Element
	stream := newConstantStream("distaff-trace/rescue/round-constants")
	for r := 0; r < Rounds; r++ {
		for c := 0; c < 2*Width; c++ {
			table[r][c] = stream.next()
		}
	}
	return table
}

// generateCauchyMDS builds a 4x4 Cauchy matrix M[i][j] = 1/(x_i + y_j),
// which is always MDS — the same construction as the teacher's
// generateMDSMatrix, specialized to width 4.
func generateCauchyMDS() [Width][Width]field.Element {
	var m [Width][Width]field.Element
	for i := 0; i < Width; i++ {
		x := field.New(uint64(i + 1))
		for j := 0; j < Width; j++ {
			y := field.New(uint64(j + Width + 1))
			m[i][j] = x.Add(y).Inv()
		}
	}
	return m
}

// constantStream is a deterministic SHA3-256-based expander: it's seeded
// once and squeezed repeatedly, each squeeze reducing 16 bytes of digest
// into a field element and feeding the digest back in for the next block.
type constantStream struct {
	state [32]byte
}

func newConstantStream(label string) *constantStream {
	cs := &constantStream{state: sha3.Sum256([]byte(label))}
	return cs
}

func (cs *constantStream) next() field.Element {
	cs.state = sha3.Sum256(cs.state[:])
	v := new(big.Int).SetBytes(cs.state[:16])
	v.Mod(v, field.Modulus)
	e, err := field.FromBigInt(v)
	if err != nil {
		// v was just reduced mod the modulus, so this cannot fail.
		panic(err)
	}
	return e
}
