package decoder

import "github.com/vybium/distaff-trace/internal/distafftrace/field"

const (
	maxCtxDepth  = 16
	maxLoopDepth = 8
)

// register is one trace column: one field element per step, zero-filled
// beyond what has actually been written.
type register []field.Element

func newRegister(length int) register {
	r := make(register, length)
	for i := range r {
		r[i] = field.Zero
	}
	return r
}

func (r register) grow(newLength int) register {
	grown := make(register, newLength)
	copy(grown, r)
	for i := len(r); i < newLength; i++ {
		grown[i] = field.Zero
	}
	return grown
}

// trace holds every growable register-trace column the decoder maintains:
// fixed-width op_acc/cf_op_bits/ld_op_bits/hd_op_bits, and the variable-depth
// (but capacity-bounded) ctx_stack/loop_stack register sets.
type trace struct {
	length int // current allocated length, always a power of two

	opAcc    [4]register
	cfOpBits [3]register
	ldOpBits [5]register
	hdOpBits [2]register

	ctxStack  []register // depth-indexed, len(ctxStack) <= maxCtxDepth
	loopStack []register // depth-indexed, len(loopStack) <= maxLoopDepth
}

func newTrace(initLength int) *trace {
	if initLength < 1 {
		initLength = 1
	}
	// Round up to a power of two so doubling keeps the length a power of two.
	for initLength&(initLength-1) != 0 {
		initLength++
	}
	tr := &trace{length: initLength}
	for i := range tr.opAcc {
		tr.opAcc[i] = newRegister(initLength)
	}
	for i := range tr.cfOpBits {
		tr.cfOpBits[i] = newRegister(initLength)
	}
	for i := range tr.ldOpBits {
		tr.ldOpBits[i] = newRegister(initLength)
	}
	for i := range tr.hdOpBits {
		tr.hdOpBits[i] = newRegister(initLength)
	}
	return tr
}

// ensureRow grows every fixed-width register (and every already-allocated
// stack register) geometrically — doubling — until row fits, matching the
// "step >= trace_length triggers doubling" growth policy (§3).
func (tr *trace) ensureRow(row int) {
	if row < tr.length {
		return
	}
	newLength := tr.length
	for newLength <= row {
		newLength *= 2
	}
	for i := range tr.opAcc {
		tr.opAcc[i] = tr.opAcc[i].grow(newLength)
	}
	for i := range tr.cfOpBits {
		tr.cfOpBits[i] = tr.cfOpBits[i].grow(newLength)
	}
	for i := range tr.ldOpBits {
		tr.ldOpBits[i] = tr.ldOpBits[i].grow(newLength)
	}
	for i := range tr.hdOpBits {
		tr.hdOpBits[i] = tr.hdOpBits[i].grow(newLength)
	}
	for i := range tr.ctxStack {
		tr.ctxStack[i] = tr.ctxStack[i].grow(newLength)
	}
	for i := range tr.loopStack {
		tr.loopStack[i] = tr.loopStack[i].grow(newLength)
	}
	tr.length = newLength
}

// ensureCtxRegister allocates a new, zero-filled context register when depth
// is about to exceed how many have been allocated so far (§3's "if depth >=
// registers, allocate a new register trace of the current trace length").
func (tr *trace) ensureCtxRegister(depth int) {
	for depth >= len(tr.ctxStack) {
		tr.ctxStack = append(tr.ctxStack, newRegister(tr.length))
	}
}

func (tr *trace) ensureLoopRegister(depth int) {
	for depth >= len(tr.loopStack) {
		tr.loopStack = append(tr.loopStack, newRegister(tr.length))
	}
}

// finalizePad fills the tail of the trace (§4.3's finalize_trace): op-bit
// rows from lastStep onward become all-1 (idle/Void), while op_acc and
// stack rows from lastStep+1 onward are copied forward from lastStep's
// values — bit registers label the step-to-step transition, so the last
// real row's bits describe a transition that never happens and are
// overwritten as idle; the data registers at that same row are still real.
func (tr *trace) finalizePad(lastStep int) {
	if lastStep < tr.length {
		for i := range tr.cfOpBits {
			tr.cfOpBits[i][lastStep] = field.One
		}
		for i := range tr.ldOpBits {
			tr.ldOpBits[i][lastStep] = field.One
		}
		for i := range tr.hdOpBits {
			tr.hdOpBits[i][lastStep] = field.One
		}
	}
	for row := lastStep + 1; row < tr.length; row++ {
		for i := range tr.cfOpBits {
			tr.cfOpBits[i][row] = field.One
		}
		for i := range tr.ldOpBits {
			tr.ldOpBits[i][row] = field.One
		}
		for i := range tr.hdOpBits {
			tr.hdOpBits[i][row] = field.One
		}
		for i := range tr.opAcc {
			tr.opAcc[i][row] = tr.opAcc[i][lastStep]
		}
		for i := range tr.ctxStack {
			tr.ctxStack[i][row] = tr.ctxStack[i][lastStep]
		}
		for i := range tr.loopStack {
			tr.loopStack[i][row] = tr.loopStack[i][lastStep]
		}
	}
}

// row returns the fixed-order concatenation get_state(step) exposes: op_acc
// [4], cf_op_bits [3], ld_op_bits [5], hd_op_bits [2], ctx_stack [<=16],
// loop_stack [<=8] (§6).
func (tr *trace) row(step int) []field.Element {
	out := make([]field.Element, 0, 4+3+5+2+len(tr.ctxStack)+len(tr.loopStack))
	for i := range tr.opAcc {
		out = append(out, tr.opAcc[i][step])
	}
	for i := range tr.cfOpBits {
		out = append(out, tr.cfOpBits[i][step])
	}
	for i := range tr.ldOpBits {
		out = append(out, tr.ldOpBits[i][step])
	}
	for i := range tr.hdOpBits {
		out = append(out, tr.hdOpBits[i][step])
	}
	for i := range tr.ctxStack {
		out = append(out, tr.ctxStack[i][step])
	}
	for i := range tr.loopStack {
		out = append(out, tr.loopStack[i][step])
	}
	return out
}
