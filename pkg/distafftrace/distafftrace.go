package distafftrace

import (
	"github.com/vybium/distaff-trace/internal/distafftrace/assembler"
	"github.com/vybium/distaff-trace/internal/distafftrace/decoder"
)

// Assemble compiles distaff assembly source into a flat opcode vector and
// its sparse hint sidetable. Unlike most of this package's functions, a
// non-empty error slice does not mean the first opcode/hint results are
// unusable garbage: per the assembler's "keep going after a bad token"
// contract, the returned program/hints are exactly what assembled
// successfully, with one *TraceError per rejected token.
func Assemble(source string) ([]UserOp, HintMap, []*TraceError) {
	program, hints, assemblyErrs := assembler.Assemble(source)
	if len(assemblyErrs) == 0 {
		return program, hints, nil
	}
	errs := make([]*TraceError, len(assemblyErrs))
	for i, e := range assemblyErrs {
		errs[i] = wrapErr(ErrAssembly, "assembly error", e)
	}
	return program, hints, errs
}

// Decoder drives the instruction-decoder state machine and accumulates the
// resulting execution trace. It wraps internal/distafftrace/decoder.Decoder,
// translating its errors into *TraceError.
type Decoder struct {
	inner *decoder.Decoder
}

// NewDecoder constructs a Decoder with the requested initial trace capacity.
func NewDecoder(initTraceLength int) (*Decoder, error) {
	d, err := decoder.New(initTraceLength)
	if err != nil {
		return nil, wrapErr(ErrDecode, "invalid decoder configuration", err)
	}
	return &Decoder{inner: d}, nil
}

// TraceLength returns the trace's current (power-of-two) capacity.
func (d *Decoder) TraceLength() int { return d.inner.TraceLength() }

// CurrentStep returns the number of operations applied so far.
func (d *Decoder) CurrentStep() int { return d.inner.CurrentStep() }

// MaxCtxStackDepth returns the high-water mark of the context stack.
func (d *Decoder) MaxCtxStackDepth() int { return d.inner.MaxCtxStackDepth() }

// MaxLoopStackDepth returns the high-water mark of the loop stack.
func (d *Decoder) MaxLoopStackDepth() int { return d.inner.MaxLoopStackDepth() }

// GetState returns the trace row at step: op_acc[4], cf_op_bits[3],
// ld_op_bits[5], hd_op_bits[2], ctx_stack[<=16], loop_stack[<=8].
func (d *Decoder) GetState(step int) []FieldElement { return d.inner.GetState(step) }

// StartBlock opens a new block frame.
func (d *Decoder) StartBlock() error {
	return wrapDecodeErr(d.inner.StartBlock())
}

// EndBlock closes the current block frame.
func (d *Decoder) EndBlock(siblingHash FieldElement, trueBranch bool) error {
	return wrapDecodeErr(d.inner.EndBlock(siblingHash, trueBranch))
}

// StartLoop opens a loop frame.
func (d *Decoder) StartLoop(loopImage FieldElement) error {
	return wrapDecodeErr(d.inner.StartLoop(loopImage))
}

// WrapLoop closes one loop iteration and opens the next.
func (d *Decoder) WrapLoop() error {
	return wrapDecodeErr(d.inner.WrapLoop())
}

// BreakLoop exits the loop.
func (d *Decoder) BreakLoop() error {
	return wrapDecodeErr(d.inner.BreakLoop())
}

// DecodeOp absorbs one user opcode into the sponge via a HACC round.
func (d *Decoder) DecodeOp(opCode UserOp, opValue FieldElement) error {
	return wrapDecodeErr(d.inner.DecodeOp(opCode, opValue))
}

// FinalizeTrace pads the tail of the trace. A second call has no effect;
// the other methods do not check whether the trace has been finalized.
func (d *Decoder) FinalizeTrace() { d.inner.FinalizeTrace() }

func wrapDecodeErr(err error) error {
	if err == nil {
		return nil
	}
	return wrapErr(ErrDecode, "decoder precondition violated", err)
}
