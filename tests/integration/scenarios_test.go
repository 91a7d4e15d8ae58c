// Package integration exercises spec.md §8's literal scenarios against the
// public pkg/distafftrace API, end to end: assemble, build a block tree,
// drive the decoder, check the result.
package integration

import (
	"testing"

	"github.com/vybium/distaff-trace/pkg/distafftrace"
)

func padSpan(t *testing.T, ops ...distafftrace.UserOp) *distafftrace.Span {
	t.Helper()
	padded := append(append([]distafftrace.UserOp{}, ops...), make([]distafftrace.UserOp, 15-len(ops))...)
	for i := len(ops); i < len(padded); i++ {
		padded[i] = distafftrace.Noop
	}
	span, err := distafftrace.NewSpan(padded)
	if err != nil {
		t.Fatalf("NewSpan failed: %v", err)
	}
	return span
}

func driveSpan(t *testing.T, d *distafftrace.Decoder, span *distafftrace.Span) {
	t.Helper()
	for _, op := range span.Instructions {
		if err := d.DecodeOp(op, distafftrace.FieldZero); err != nil {
			t.Fatalf("DecodeOp(%v) failed: %v", op, err)
		}
	}
}

// Scenario 1: Group([Span([Noop x15])]) drives to a 32-step trace.
func TestScenario1EmptyProgram(t *testing.T) {
	span := padSpan(t)
	group, err := distafftrace.NewGroup([]distafftrace.ProgramBlock{span})
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}

	d, err := distafftrace.NewDecoder(1)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	if err := d.StartBlock(); err != nil {
		t.Fatalf("StartBlock failed: %v", err)
	}
	driveSpan(t, d, span)
	if err := d.EndBlock(distafftrace.FieldZero, true); err != nil {
		t.Fatalf("EndBlock failed: %v", err)
	}
	d.FinalizeTrace()

	if got, want := d.TraceLength(), 32; got != want {
		t.Errorf("TraceLength = %d, want %d", got, want)
	}
	if got, want := d.CurrentStep(), 17; got != want {
		t.Errorf("CurrentStep = %d, want %d", got, want)
	}

	got := d.GetState(d.CurrentStep() - 1)
	want := group.Hash(distafftrace.SpongeZero)
	for i := 0; i < 4; i++ {
		if !got[i].Equal(want[i]) {
			t.Errorf("op_acc[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// Scenario 2: "noop noop noop push.42" assembles with a PushValue hint at
// the 8-aligned Push slot.
func TestScenario2PushAlignment(t *testing.T) {
	prog, hints, errs := distafftrace.Assemble("noop noop noop push.42")
	if len(errs) != 0 {
		t.Fatalf("Assemble returned errors: %v", errs)
	}
	if len(prog) != 9 {
		t.Fatalf("program length = %d, want 9", len(prog))
	}
	h, ok := hints[8]
	if !ok || h.Kind != distafftrace.HintPushValue {
		t.Fatalf("hints[8] = %+v, ok=%v, want a PushValue hint", h, ok)
	}
}

// Scenario 3: "eq" assembles to [Read, Eq] with an EqStart hint at index 0.
func TestScenario3Eq(t *testing.T) {
	prog, hints, errs := distafftrace.Assemble("eq")
	if len(errs) != 0 {
		t.Fatalf("Assemble returned errors: %v", errs)
	}
	if len(prog) != 2 {
		t.Fatalf("program length = %d, want 2", len(prog))
	}
	h, ok := hints[0]
	if !ok || h.Kind != distafftrace.HintEqStart {
		t.Fatalf("hints[0] = %+v, ok=%v, want an EqStart hint", h, ok)
	}
}

// Scenario 6: a Switch block's true branch, driven through the decoder,
// agrees with the block tree's own statically-computed hash.
func TestScenario6SwitchHashAgreement(t *testing.T) {
	tSpan := padSpan(t, distafftrace.Assert)
	fSpan := padSpan(t, distafftrace.Not, distafftrace.Assert)
	sw, err := distafftrace.NewSwitch(
		[]distafftrace.ProgramBlock{tSpan},
		[]distafftrace.ProgramBlock{fSpan},
	)
	if err != nil {
		t.Fatalf("NewSwitch failed: %v", err)
	}

	dFalse, err := distafftrace.NewDecoder(1)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	if err := dFalse.StartBlock(); err != nil {
		t.Fatalf("StartBlock (false branch) failed: %v", err)
	}
	driveSpan(t, dFalse, fSpan)
	falseHash := dFalse.GetState(dFalse.CurrentStep() - 1)[0]

	d, err := distafftrace.NewDecoder(1)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	if err := d.StartBlock(); err != nil {
		t.Fatalf("StartBlock failed: %v", err)
	}
	driveSpan(t, d, tSpan)
	if err := d.EndBlock(falseHash, true); err != nil {
		t.Fatalf("EndBlock failed: %v", err)
	}
	d.FinalizeTrace()

	got := d.GetState(d.CurrentStep() - 1)
	want := sw.Hash(distafftrace.SpongeZero)
	for i := 0; i < 4; i++ {
		if !got[i].Equal(want[i]) {
			t.Errorf("op_acc[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// Scenario 5: wrap_loop aborts with a decode error when the just-finished
// iteration's digest doesn't match the saved loop image.
func TestScenario5LoopImageMismatch(t *testing.T) {
	d, err := distafftrace.NewDecoder(1)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	if err := d.StartLoop(distafftrace.FieldZero); err != nil {
		t.Fatalf("StartLoop failed: %v", err)
	}
	body := padSpan(t, distafftrace.Assert)
	driveSpan(t, d, body)

	if err := d.WrapLoop(); err == nil {
		t.Fatal("expected a loop-image-mismatch error")
	}
}
