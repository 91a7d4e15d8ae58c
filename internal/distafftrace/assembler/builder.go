package assembler

import (
	"github.com/vybium/distaff-trace/internal/distafftrace/field"
	"github.com/vybium/distaff-trace/internal/distafftrace/opcodes"
)

// builder accumulates the opcode sequence and hint sidetable a mnemonic
// expands into, tracking the running program length so every macro can key
// its hints (and check its alignment) against the position its opcodes will
// actually land at.
type builder struct {
	program []opcodes.UserOp
	hints   opcodes.HintMap
}

func newBuilder() *builder {
	return &builder{hints: make(opcodes.HintMap)}
}

func (b *builder) len() int { return len(b.program) }

func (b *builder) emit(ops ...opcodes.UserOp) {
	b.program = append(b.program, ops...)
}

func (b *builder) setHint(at int, h opcodes.OpHint) {
	b.hints[at] = h
}

// padTo appends Noop until the program length is a multiple of m.
func (b *builder) padTo(m int) {
	for b.len()%m != 0 {
		b.emit(opcodes.Noop)
	}
}

// push implements the shared Push alignment rule (§4.2): pad with Noop to an
// 8-aligned boundary, record the PushValue hint keyed at the position the
// Push opcode itself will occupy, then emit Push.
func (b *builder) push(v field.Element) {
	b.padTo(8)
	b.setHint(b.len(), opcodes.PushValue(v))
	b.emit(opcodes.Push)
}
