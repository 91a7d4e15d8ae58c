package blocks

import (
	"github.com/vybium/distaff-trace/internal/distafftrace/field"
	"github.com/vybium/distaff-trace/internal/distafftrace/opcodes"
	"github.com/vybium/distaff-trace/internal/distafftrace/rescue"
)

// HashSeq folds a list of blocks left-to-right starting from the zero
// state, threading the full 4-element state between blocks, and returns
// the first slot of the final state (§4.1).
func HashSeq(list []ProgramBlock) field.Element {
	state := rescue.Zero
	for _, b := range list {
		state = b.Hash(state)
	}
	return state[0]
}

// HashAcc mixes the parent state's first slot with two children summaries
// to produce the parent's new 4-element state: (prev, v0, v1, 0). This is
// exactly the tuple end_block installs into the sponge via set_sponge
// (start_loop and wrap_loop reset it to zero instead) — no additional
// Rescue round is applied here, matching §4.3's
// decoder ground truth rather than the looser "runs one Rescue round"
// phrasing in §4.1 (see DESIGN.md).
func HashAcc(prev, v0, v1 field.Element) rescue.State {
	return rescue.State{prev, v0, v1, zeroElement()}
}

func zeroElement() field.Element { return field.Zero }

func opsToFieldElements(ops []opcodes.UserOp) []field.Element {
	out := make([]field.Element, len(ops))
	for i, op := range ops {
		out[i] = field.New(uint64(op))
	}
	return out
}
