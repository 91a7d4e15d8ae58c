package assembler

import (
	"math/big"
	"testing"

	"github.com/vybium/distaff-trace/internal/distafftrace/field"
	"github.com/vybium/distaff-trace/internal/distafftrace/opcodes"
)

func assembleOK(t *testing.T, source string) ([]opcodes.UserOp, opcodes.HintMap) {
	t.Helper()
	prog, hints, errs := Assemble(source)
	if len(errs) != 0 {
		t.Fatalf("Assemble(%q) produced errors: %v", source, errs)
	}
	return prog, hints
}

func requireOps(t *testing.T, got []opcodes.UserOp, want ...opcodes.UserOp) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("program length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op %d = %v, want %v", i, got[i], want[i])
		}
	}
}

// Scenario 2 (spec.md §8): assemble "noop noop noop push.42". The three
// noop tokens bring the program to length 3; push.42 pads to the next
// 8-aligned boundary (5 more Noops, reaching index 8) before emitting Push.
func TestPushAlignmentScenario(t *testing.T) {
	prog, hints := assembleOK(t, "noop noop noop push.42")
	requireOps(t, prog,
		opcodes.Noop, opcodes.Noop, opcodes.Noop,
		opcodes.Noop, opcodes.Noop, opcodes.Noop, opcodes.Noop, opcodes.Noop,
		opcodes.Push)

	h, ok := hints[8]
	if !ok {
		t.Fatalf("expected a PushValue hint keyed at index 8, hints = %v", hints)
	}
	if h.Kind != opcodes.HintPushValue || !h.Value.Equal(field.New(42)) {
		t.Fatalf("hint at 8 = %+v, want PushValue(42)", h)
	}
}

// Scenario 3 (spec.md §8): assemble "eq".
func TestEqScenario(t *testing.T) {
	prog, hints := assembleOK(t, "eq")
	requireOps(t, prog, opcodes.Read, opcodes.Eq)
	h, ok := hints[0]
	if !ok || h.Kind != opcodes.HintEqStart {
		t.Fatalf("hints = %v, want {0: EqStart}", hints)
	}
}

// Scenario 4 (spec.md §8): assemble "gt.64". The program's shape (4-opcode
// preamble, push of 2^63 at the next index%8==0 slot, 64 Cmps driven by a
// CmpStart hint at the first Cmp, then a 9-opcode post-amble) is as
// specified; see DESIGN.md for why this implementation's concrete opcode
// count differs by one from the literal total given in the scenario text.
func TestGreaterThanScenario(t *testing.T) {
	prog, hints := assembleOK(t, "gt.64")

	wantLen := 4 /* preamble */ + 4 /* noop pad to index 8 */ + 1 /* push */ + 64 /* cmps */ + 9 /* post-amble */
	if len(prog) != wantLen {
		t.Fatalf("gt.64 program length = %d, want %d", len(prog), wantLen)
	}

	pushIdx := 8
	if prog[pushIdx] != opcodes.Push {
		t.Fatalf("expected Push at index %d, got %v", pushIdx, prog[pushIdx])
	}
	h, ok := hints[pushIdx]
	want := new(big.Int).Lsh(big.NewInt(1), 63)
	wantElem, _ := field.FromBigInt(want)
	if !ok || h.Kind != opcodes.HintPushValue || !h.Value.Equal(wantElem) {
		t.Fatalf("hint at %d = %+v, want PushValue(2^63)", pushIdx, h)
	}

	cmpIdx := pushIdx + 1
	h2, ok := hints[cmpIdx]
	if !ok || h2.Kind != opcodes.HintCmpStart || h2.N != 64 {
		t.Fatalf("hint at %d = %+v, want CmpStart(64)", cmpIdx, h2)
	}
	for i := 0; i < 64; i++ {
		if prog[cmpIdx+i] != opcodes.Cmp {
			t.Fatalf("expected Cmp at index %d, got %v", cmpIdx+i, prog[cmpIdx+i])
		}
	}
}

func TestPushAlignmentInvariant(t *testing.T) {
	prog, hints := assembleOK(t, "noop push.1 noop noop noop noop noop noop noop noop push.2")
	for i, op := range prog {
		if op != opcodes.Push {
			continue
		}
		if i%8 != 0 {
			t.Errorf("Push at index %d is not 8-aligned", i)
		}
		if _, ok := hints[i]; !ok {
			t.Errorf("Push at index %d has no PushValue hint", i)
		}
	}
}

func TestAssemblerIdempotence(t *testing.T) {
	cases := []struct {
		source string
		want   []opcodes.UserOp
	}{
		{"noop", []opcodes.UserOp{opcodes.Noop}},
		{"assert", []opcodes.UserOp{opcodes.Assert}},
		{"assert.eq", []opcodes.UserOp{opcodes.AssertEq}},
		{"read", []opcodes.UserOp{opcodes.Read}},
		{"read.ab", []opcodes.UserOp{opcodes.Read2}},
		{"dup", []opcodes.UserOp{opcodes.Dup}},
		{"dup.2", []opcodes.UserOp{opcodes.Dup2}},
		{"dup.3", []opcodes.UserOp{opcodes.Dup4, opcodes.Roll4, opcodes.Drop}},
		{"dup.4", []opcodes.UserOp{opcodes.Dup4}},
		{"drop", []opcodes.UserOp{opcodes.Drop}},
		{"drop.2", []opcodes.UserOp{opcodes.Drop, opcodes.Drop}},
		{"drop.3", []opcodes.UserOp{opcodes.Dup, opcodes.Drop4}},
		{"drop.4", []opcodes.UserOp{opcodes.Drop4}},
		{"swap.1", []opcodes.UserOp{opcodes.Swap}},
		{"swap.2", []opcodes.UserOp{opcodes.Swap2}},
		{"swap.4", []opcodes.UserOp{opcodes.Swap4}},
		{"roll.4", []opcodes.UserOp{opcodes.Roll4}},
		{"roll.8", []opcodes.UserOp{opcodes.Roll8}},
		{"pick.1", []opcodes.UserOp{opcodes.Pick1}},
		{"add", []opcodes.UserOp{opcodes.Add}},
		{"sub", []opcodes.UserOp{opcodes.Neg, opcodes.Add}},
		{"div", []opcodes.UserOp{opcodes.Inv, opcodes.Mul}},
		{"choose", []opcodes.UserOp{opcodes.Choose}},
		{"choose.2", []opcodes.UserOp{opcodes.Choose2}},
	}

	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			got1, _, errs1 := Assemble(c.source)
			if len(errs1) != 0 {
				t.Fatalf("unexpected errors: %v", errs1)
			}
			requireOps(t, got1, c.want...)

			got2, _, _ := Assemble(c.source)
			requireOps(t, got2, got1...)
		})
	}
}

func TestRejectsOutOfRangeParams(t *testing.T) {
	cases := []string{"dup.9", "drop.5", "swap.3", "roll.3", "pick.4", "pad.9", "gt.3", "rc.200", "choose.3"}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			_, _, errs := Assemble(c)
			if len(errs) != 1 || errs[0].Kind != InvalidParamReason {
				t.Fatalf("Assemble(%q) errs = %v, want one InvalidParamReason", c, errs)
			}
		})
	}
}

func TestMissingAndExtraParamErrors(t *testing.T) {
	_, _, errs := Assemble("push")
	if len(errs) != 1 || errs[0].Kind != MissingParam {
		t.Fatalf("Assemble(\"push\") errs = %v, want one MissingParam", errs)
	}

	_, _, errs = Assemble("noop.3")
	if len(errs) != 1 || errs[0].Kind != ExtraParam {
		t.Fatalf("Assemble(\"noop.3\") errs = %v, want one ExtraParam", errs)
	}
}

func TestAssemblerContinuesAfterError(t *testing.T) {
	prog, _, errs := Assemble("dup.9 add")
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly one", errs)
	}
	requireOps(t, prog, opcodes.Add)
}

func TestHashAndMerklePathAlignment(t *testing.T) {
	// hash.2: 2-opcode preamble, padded to 16, then 10 RescR + Drop4.
	prog, _, errs := Assemble("hash.2")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if want := 16 + 11; len(prog) != want {
		t.Fatalf("hash.2 program length = %d, want %d", len(prog), want)
	}
	if prog[15] != opcodes.Noop || prog[16] != opcodes.RescR {
		t.Fatalf("hash.2 round cycle should start 16-aligned at index 16")
	}

	_, _, errs = Assemble("mpath.2")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors for mpath.2: %v", errs)
	}
}
