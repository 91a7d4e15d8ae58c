// Package distafftrace provides a stable entry point over
// internal/distafftrace's assembler, program-block, and decoder
// packages: assemble distaff assembly into opcodes, build a program block
// tree, and drive the instruction decoder to produce an execution trace.
//
// # Quick start
//
// Assembling a short program and driving it through a decoder:
//
//	program, hints, errs := distafftrace.Assemble("noop noop noop push.42")
//	if len(errs) != 0 {
//		log.Fatal(errs[0])
//	}
//
//	// A span's length must be 15 mod 16: pad with Noop.
//	for len(program)%16 != 15 {
//		program = append(program, distafftrace.Noop)
//	}
//
//	span, err := distafftrace.NewSpan(program)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	dec, err := distafftrace.NewDecoder(1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := dec.StartBlock(); err != nil {
//		log.Fatal(err)
//	}
//	for i, op := range span.Instructions {
//		value := distafftrace.FieldZero
//		if h, ok := hints[i]; ok && h.Kind == distafftrace.HintPushValue {
//			value = h.Value
//		}
//		if err := dec.DecodeOp(op, value); err != nil {
//			log.Fatal(err)
//		}
//	}
//	if err := dec.EndBlock(distafftrace.FieldZero, true); err != nil {
//		log.Fatal(err)
//	}
//	dec.FinalizeTrace()
//
// # Architecture
//
//   - pkg/distafftrace/: public API (this package)
//   - internal/distafftrace/: assembler, blocks, decoder, opcodes, field,
//     rescue, stack — not importable outside this module
//
// Implementation details in internal/ can change without breaking this
// package's surface.
package distafftrace
