package distafftrace_test

import (
	"errors"
	"testing"

	"github.com/vybium/distaff-trace/pkg/distafftrace"
)

func TestAssembleScenario2(t *testing.T) {
	prog, hints, errs := distafftrace.Assemble("noop noop noop push.42")
	if len(errs) != 0 {
		t.Fatalf("Assemble returned errors: %v", errs)
	}
	if len(prog) != 9 {
		t.Fatalf("program length = %d, want 9", len(prog))
	}
	h, ok := hints[8]
	if !ok {
		t.Fatalf("expected a PushValue hint at index 8")
	}
	if h.Kind != distafftrace.HintPushValue {
		t.Fatalf("hint kind = %v, want PushValue", h.Kind)
	}
	if h.Value.IsZero() {
		t.Fatalf("hint value should not be zero for push.42")
	}
}

func TestAssembleReportsTraceError(t *testing.T) {
	_, _, errs := distafftrace.Assemble("push")
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly one", errs)
	}
	if errs[0].Code != distafftrace.ErrAssembly {
		t.Fatalf("errs[0].Code = %v, want ErrAssembly", errs[0].Code)
	}
	var target *distafftrace.TraceError
	if !errors.As(error(errs[0]), &target) {
		t.Fatalf("errors.As failed to unwrap a *TraceError")
	}
}

func TestDecoderDrivesEmptyProgram(t *testing.T) {
	span, err := distafftrace.NewSpan(make([]distafftrace.UserOp, 15))
	if err != nil {
		t.Fatalf("NewSpan failed: %v", err)
	}
	if _, err := distafftrace.NewGroup([]distafftrace.ProgramBlock{span}); err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}

	d, err := distafftrace.NewDecoder(1)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	if err := d.StartBlock(); err != nil {
		t.Fatalf("StartBlock failed: %v", err)
	}
	for _, op := range span.Instructions {
		if err := d.DecodeOp(op, distafftrace.FieldZero); err != nil {
			t.Fatalf("DecodeOp failed: %v", err)
		}
	}
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
}

func TestDecoderReportsAlignmentTraceError(t *testing.T) {
	d, err := distafftrace.NewDecoder(1)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	if err := d.StartBlock(); err != nil {
		t.Fatalf("StartBlock failed: %v", err)
	}
	err = d.StartBlock()
	if err == nil {
		t.Fatal("expected an alignment error from a mistimed nested StartBlock")
	}
	var target *distafftrace.TraceError
	if !errors.As(err, &target) || target.Code != distafftrace.ErrDecode {
		t.Fatalf("err = %v, want a *TraceError with Code ErrDecode", err)
	}
}
