package vm

import (
	"fmt"
	"strings"

	"github.com/kristofer/gravity/pkg/opcode"
	"github.com/kristofer/gravity/pkg/value"
)

// DebugLevel controls how much the VM reports about its own execution.
// This is the one ambient concern SPEC_FULL.md carries on the standard
// library alone: a disassembler is an inherently textual, one-off
// formatting task over this module's own opcode table, not a concern any
// library in the retrieved pack addresses (structured logging libraries
// format application events, not instruction streams) — see DESIGN.md.
type DebugLevel int

const (
	DebugNone DebugLevel = iota
	DebugBasic
	DebugDetailed
)

// SetDebugLevel records a debug level on the VM; the interpreter loop
// does not read it.
func (vm *VM) SetDebugLevel(level DebugLevel) { vm.debugLevel = level }

// SetBreakpoint marks a bytecode offset as a breakpoint. The set is only
// stored on the VM: neither the interpreter loop nor Disassemble reads it.
func (vm *VM) SetBreakpoint(ip int)   { vm.breakpoints[ip] = true }
func (vm *VM) ClearBreakpoint(ip int) { delete(vm.breakpoints, ip) }

// Disassemble renders a Function's bytecode as human-readable text, one
// instruction per line, in the vein of a disassembler a VM's own debug
// tooling would ship (spec.md §4.3's opcode table made legible).
func Disassemble(fn *value.Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s (%d params, %d locals, %d temps, %d upvalues)\n",
		fn.Identifier, fn.NParams, fn.NLocals, fn.NTemps, fn.NUpvalues)
	for ip, word := range fn.Bytecode {
		inst := opcode.Instruction(word)
		fmt.Fprintf(&b, "  %04d  %s\n", ip, disassembleOne(inst))
	}
	return b.String()
}

func disassembleOne(inst opcode.Instruction) string {
	op := inst.Opcode()
	switch op {
	case opcode.OpJUMP:
		return fmt.Sprintf("%-12s -> %d", op, inst.DecodeA26())
	case opcode.OpJUMPF:
		a, flag, b := inst.DecodeAFB17()
		return fmt.Sprintf("%-12s r%d == %v -> %d", op, a, flag, b)
	case opcode.OpLOADI:
		a, imm := inst.DecodeASB17()
		return fmt.Sprintf("%-12s r%d, %d", op, a, imm)
	case opcode.OpLOADK, opcode.OpLOADG, opcode.OpSTOREG, opcode.OpMAPNEW, opcode.OpLISTNEW, opcode.OpCLOSURE, opcode.OpCLOSE:
		a, b := inst.DecodeAB18()
		return fmt.Sprintf("%-12s r%d, %d", op, a, b)
	case opcode.OpADD, opcode.OpSUB, opcode.OpMUL, opcode.OpDIV, opcode.OpREM,
		opcode.OpAND, opcode.OpOR, opcode.OpEQ, opcode.OpNEQ, opcode.OpEQQ, opcode.OpNEQQ,
		opcode.OpLT, opcode.OpGT, opcode.OpLEQ, opcode.OpGEQ,
		opcode.OpLSHIFT, opcode.OpRSHIFT, opcode.OpBAND, opcode.OpBOR, opcode.OpBXOR,
		opcode.OpLOAD, opcode.OpSTORE, opcode.OpINVOKE, opcode.OpSUPERINVOKE:
		a, b, c := inst.DecodeABC10()
		return fmt.Sprintf("%-12s r%d, r%d, %d", op, a, b, c)
	default:
		a, b, c := inst.DecodeABC()
		return fmt.Sprintf("%-12s r%d, r%d, r%d", op, a, b, c)
	}
}
