package decoder

import (
	"github.com/vybium/distaff-trace/internal/distafftrace/field"
	"github.com/vybium/distaff-trace/internal/distafftrace/opcodes"
	"github.com/vybium/distaff-trace/internal/distafftrace/rescue"
)

// Decoder is the instruction-decoder state machine (C5). It owns one Rescue
// sponge and the growable register-trace columns in trace; every exported
// mutator advances the step counter by exactly one and is not safe to call
// concurrently with any other call on the same Decoder (§5).
type Decoder struct {
	tr     *trace
	sponge rescue.State

	// step is the index of the most recently committed row, i.e. one less
	// than the number of operations applied so far. It starts at -1: the
	// very first boundary operation (the outermost StartBlock/StartLoop) has
	// no preceding row to label with a transition bit, so -1 is a sentinel
	// meaning "no row yet" rather than a real trace index. floorMod16(-1)
	// is 15, so the very first op still satisfies the "step % 16 == 15"
	// precondition that a real program requires of every block-opening op.
	step int

	ctxDepth, loopDepth       int
	maxCtxDepth, maxLoopDepth int

	finalized bool
}

// New constructs a Decoder with the requested initial trace capacity.
// initTraceLength must be >= 1; callers typically pass a power of two.
func New(initTraceLength int) (*Decoder, error) {
	if initTraceLength < 1 {
		return nil, errAlignment(0, "init_trace_length must be >= 1")
	}
	return &Decoder{tr: newTrace(initTraceLength), sponge: rescue.Zero, step: -1}, nil
}

// floorMod16 is step%16 generalized to behave for the one legitimate
// negative value this package ever sees (step == -1 at decoder creation).
func floorMod16(v int) int {
	m := v % 16
	if m < 0 {
		m += 16
	}
	return m
}

// TraceLength returns the trace's current (power-of-two) capacity.
func (d *Decoder) TraceLength() int { return d.tr.length }

// CurrentStep returns the number of operations applied so far.
func (d *Decoder) CurrentStep() int { return d.step + 1 }

// MaxCtxStackDepth returns the high-water mark of the context stack.
func (d *Decoder) MaxCtxStackDepth() int { return d.maxCtxDepth }

// MaxLoopStackDepth returns the high-water mark of the loop stack.
func (d *Decoder) MaxLoopStackDepth() int { return d.maxLoopDepth }

// GetState returns get_state(step): the fixed-order row concatenation
// op_acc[4], cf_op_bits[3], ld_op_bits[5], hd_op_bits[2], ctx_stack[<=16],
// loop_stack[<=8] (§6).
func (d *Decoder) GetState(step int) []field.Element {
	return d.tr.row(step)
}

// beginOp allocates both the row this operation will write its
// transition-bit label into (the current, pre-increment step) and the row
// it will transition to, since every mutator's stack-shift helpers write
// into the new row before commitRow gets a chance to grow the trace for it.
func (d *Decoder) beginOp() int {
	d.tr.ensureRow(d.step + 1)
	return d.step
}

// writeFlowBits records flowOp into row (the transition-label row), and
// Noop's UserOp bits alongside it — every op except decode_op carries an
// implicit Noop user-op (§3: "only Noop is permitted in a step whose flow op
// is not Hacc").
func (d *Decoder) writeFlowBits(row int, flowOp opcodes.FlowOp) {
	if row < 0 {
		// The outermost block-opening op of the whole program: there is no
		// prior row to attach a transition label to.
		return
	}
	bits := flowOp.Bits()
	for i, b := range bits {
		d.tr.cfOpBits[i][row] = bitElement(b)
	}
	ld, hd := opcodes.Noop.Bits()
	for i, b := range ld {
		d.tr.ldOpBits[i][row] = bitElement(b)
	}
	for i, b := range hd {
		d.tr.hdOpBits[i][row] = bitElement(b)
	}
}

func bitElement(b uint8) field.Element {
	if b == 0 {
		return field.Zero
	}
	return field.One
}

func (d *Decoder) setSponge(s rescue.State) { d.sponge = s }

// ctxPush saves value onto the context stack, right-shifting the existing
// registers (§3's save/pop shift semantics).
func (d *Decoder) ctxPush(prevRow, newRow int, value field.Element) error {
	if d.ctxDepth+1 > maxCtxDepth {
		return errStackOverflow(prevRow, "context stack depth exceeds 16")
	}
	d.tr.ensureCtxRegister(d.ctxDepth)
	for i := d.ctxDepth; i >= 1; i-- {
		d.tr.ctxStack[i][newRow] = d.tr.ctxStack[i-1][prevRow]
	}
	d.tr.ctxStack[0][newRow] = value
	d.ctxDepth++
	if d.ctxDepth > d.maxCtxDepth {
		d.maxCtxDepth = d.ctxDepth
	}
	return nil
}

// ctxPop removes and returns the top of the context stack, left-shifting the
// remaining registers.
func (d *Decoder) ctxPop(prevRow, newRow int) (field.Element, error) {
	if d.ctxDepth == 0 {
		return field.Zero, errStackUnderflow(prevRow, "context stack is empty")
	}
	value := d.tr.ctxStack[0][prevRow]
	oldDepth := d.ctxDepth
	for i := 1; i < oldDepth; i++ {
		d.tr.ctxStack[i-1][newRow] = d.tr.ctxStack[i][prevRow]
	}
	d.tr.ctxStack[oldDepth-1][newRow] = field.Zero
	d.ctxDepth--
	return value, nil
}

// ctxCopy propagates every allocated context register unchanged.
func (d *Decoder) ctxCopy(prevRow, newRow int) {
	for i := range d.tr.ctxStack {
		d.tr.ctxStack[i][newRow] = d.tr.ctxStack[i][prevRow]
	}
}

func (d *Decoder) loopPush(prevRow, newRow int, value field.Element) error {
	if d.loopDepth+1 > maxLoopDepth {
		return errStackOverflow(prevRow, "loop stack depth exceeds 8")
	}
	d.tr.ensureLoopRegister(d.loopDepth)
	for i := d.loopDepth; i >= 1; i-- {
		d.tr.loopStack[i][newRow] = d.tr.loopStack[i-1][prevRow]
	}
	d.tr.loopStack[0][newRow] = value
	d.loopDepth++
	if d.loopDepth > d.maxLoopDepth {
		d.maxLoopDepth = d.loopDepth
	}
	return nil
}

func (d *Decoder) loopPop(prevRow, newRow int) (field.Element, error) {
	if d.loopDepth == 0 {
		return field.Zero, errStackUnderflow(prevRow, "loop stack is empty")
	}
	value := d.tr.loopStack[0][prevRow]
	oldDepth := d.loopDepth
	for i := 1; i < oldDepth; i++ {
		d.tr.loopStack[i-1][newRow] = d.tr.loopStack[i][prevRow]
	}
	d.tr.loopStack[oldDepth-1][newRow] = field.Zero
	d.loopDepth--
	return value, nil
}

func (d *Decoder) loopPeek(row int) field.Element {
	if d.loopDepth == 0 {
		return field.Zero
	}
	return d.tr.loopStack[0][row]
}

func (d *Decoder) loopCopy(prevRow, newRow int) {
	for i := range d.tr.loopStack {
		d.tr.loopStack[i][newRow] = d.tr.loopStack[i][prevRow]
	}
}

// StartBlock opens a new block frame: saves the current sponge digest onto
// the context stack, carries the loop stack forward unchanged, and resets
// the sponge to zero (§4.3).
func (d *Decoder) StartBlock() error {
	row := d.beginOp()
	if floorMod16(row) != 15 {
		return errAlignment(row, "start_block requires step % 16 == 15")
	}
	d.writeFlowBits(row, opcodes.Begin)

	saved := d.sponge[0]
	newRow := d.step + 1
	if err := d.ctxPush(row, newRow, saved); err != nil {
		return err
	}
	d.loopCopy(row, newRow)
	d.setSponge(rescue.Zero)
	d.commitRow(newRow)
	return nil
}

// commitRow finishes an operation whose stack columns (ctxPush/ctxCopy etc.)
// were already written into a pre-reserved new row: it makes sure the row
// exists, writes op_acc and advances the counter.
func (d *Decoder) commitRow(newRow int) {
	d.tr.ensureRow(newRow)
	for i := range d.tr.opAcc {
		d.tr.opAcc[i][newRow] = d.sponge[i]
	}
	d.step = newRow
}

// EndBlock closes the current block frame, combining the just-finished
// block's digest with sibling_hash and the popped parent context into the
// parent's new sponge state (§4.3).
func (d *Decoder) EndBlock(siblingHash field.Element, trueBranch bool) error {
	row := d.beginOp()
	// Equivalent to requiring the row this op transitions into (row+1) to be
	// %16==0; expressed via row to share floorMod16's negative-safety and
	// because every other op's precondition is phrased against row too. A
	// valid program's block/span length invariants guarantee row itself
	// also satisfies floorMod16(row)==15 here, the same gate start_block
	// checked when this block was opened (see DESIGN.md).
	if floorMod16(row+1) != 0 {
		return errAlignment(row, "end_block requires step % 16 == 0")
	}
	flowOp := opcodes.Fend
	if trueBranch {
		flowOp = opcodes.Tend
	}
	d.writeFlowBits(row, flowOp)

	blockHash := d.sponge[0]
	newRow := d.step + 1
	ctx, err := d.ctxPop(row, newRow)
	if err != nil {
		return err
	}
	d.loopCopy(row, newRow)

	var next rescue.State
	if trueBranch {
		next = rescue.State{ctx, blockHash, siblingHash, field.Zero}
	} else {
		next = rescue.State{ctx, siblingHash, blockHash, field.Zero}
	}
	d.setSponge(next)
	d.commitRow(newRow)
	return nil
}

// StartLoop opens a loop frame: saves context (as StartBlock does) and also
// pushes loopImage onto the loop stack so WrapLoop/BreakLoop can check each
// iteration's digest against it.
func (d *Decoder) StartLoop(loopImage field.Element) error {
	row := d.beginOp()
	if floorMod16(row) != 15 {
		return errAlignment(row, "start_loop requires step % 16 == 15")
	}
	d.writeFlowBits(row, opcodes.Loop)

	saved := d.sponge[0]
	newRow := d.step + 1
	if err := d.ctxPush(row, newRow, saved); err != nil {
		return err
	}
	if err := d.loopPush(row, newRow, loopImage); err != nil {
		return err
	}
	d.setSponge(rescue.Zero)
	d.commitRow(newRow)
	return nil
}

// WrapLoop closes one loop iteration and opens the next: the just-finished
// iteration's digest must match the saved loop image.
func (d *Decoder) WrapLoop() error {
	row := d.beginOp()
	if floorMod16(row) != 15 {
		return errAlignment(row, "wrap_loop requires step % 16 == 15")
	}
	d.writeFlowBits(row, opcodes.Wrap)

	if !d.sponge[0].Equal(d.loopPeek(row)) {
		return errLoopImageMismatch(row, "sponge[0] does not match the saved loop image")
	}
	newRow := d.step + 1
	d.ctxCopy(row, newRow)
	d.loopCopy(row, newRow)
	d.setSponge(rescue.Zero)
	d.commitRow(newRow)
	return nil
}

// BreakLoop exits the loop: the last iteration's digest must match the
// saved loop image, which is then popped; the sponge is kept as-is (it
// becomes the loop block's final digest, consumed by the matching EndBlock).
func (d *Decoder) BreakLoop() error {
	row := d.beginOp()
	if floorMod16(row) != 15 {
		return errAlignment(row, "break_loop requires step % 16 == 15")
	}
	d.writeFlowBits(row, opcodes.Break)

	newRow := d.step + 1
	d.ctxCopy(row, newRow)
	popped, err := d.loopPop(row, newRow)
	if err != nil {
		return err
	}
	if !d.sponge[0].Equal(popped) {
		return errLoopImageMismatch(row, "sponge[0] does not match the popped loop image")
	}
	// sponge := sponge: re-installed into op_acc at the new row without
	// being reset, keeping op_acc populated at every step.
	d.setSponge(d.sponge)
	d.commitRow(newRow)
	return nil
}

// DecodeOp absorbs one user opcode into the sponge via a HACC round (§4.4).
func (d *Decoder) DecodeOp(opCode opcodes.UserOp, opValue field.Element) error {
	row := d.beginOp()
	if opCode == opcodes.Push && !opValue.IsZero() && row%8 != 0 {
		return errAlignment(row, "push with a non-zero op_value requires step % 8 == 0")
	}

	bits := opcodes.Hacc.Bits()
	for i, b := range bits {
		d.tr.cfOpBits[i][row] = bitElement(b)
	}
	ld, hd := opCode.Bits()
	for i, b := range ld {
		d.tr.ldOpBits[i][row] = bitElement(b)
	}
	for i, b := range hd {
		d.tr.hdOpBits[i][row] = bitElement(b)
	}

	newRow := d.step + 1
	d.ctxCopy(row, newRow)
	d.loopCopy(row, newRow)

	opCodeElem := field.New(uint64(opCode))
	d.sponge = rescue.HaccRound(d.sponge, row%rescue.Rounds, opCodeElem, opValue)
	d.commitRow(newRow)
	return nil
}

// FinalizeTrace pads the tail of the trace from the current step to the end
// of its (power-of-two) capacity. A second call has no effect; the other
// mutators do not check whether the trace has been finalized.
func (d *Decoder) FinalizeTrace() {
	if d.finalized {
		return
	}
	d.tr.finalizePad(d.step)
	d.finalized = true
}
