// Package assembler translates distaff-trace mnemonic source into the
// UserOp sequence and hint sidetable the decoder consumes (§4.2). It is
// built to keep going after a malformed token: every bad token produces one
// *AssemblyError and assembly continues with the remaining tokens, so a
// caller sees every problem in a source file in one pass rather than just
// the first.
package assembler

import (
	"github.com/vybium/distaff-trace/internal/distafftrace/opcodes"
)

// Assemble translates source into a UserOp program and its hint sidetable.
// On a clean run errs is nil. On a dirty run, program and hints still hold
// whatever was successfully expanded around the bad tokens — callers that
// want a strict all-or-nothing result should treat a non-empty errs slice
// as fatal themselves.
func Assemble(source string) ([]opcodes.UserOp, opcodes.HintMap, []*AssemblyError) {
	b := newBuilder()
	var errs []*AssemblyError

	for _, tok := range lex(source) {
		if err := expand(b, tok); err != nil {
			errs = append(errs, err)
		}
	}

	return b.program, b.hints, errs
}
