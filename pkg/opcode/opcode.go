// Package opcode defines Gravity's 32-bit instruction format and the
// 53-opcode table described in spec.md §4.3.
package opcode

// Op is one of the 64 possible 6-bit opcode slots (53 in use).
type Op byte

const (
	OpNOP Op = iota
	OpHALT
	OpJUMP
	OpJUMPF
	OpRET
	OpRET0
	OpCALL

	OpMOVE
	OpLOAD
	OpLOADS
	OpLOADAT
	OpLOADK
	OpLOADG
	OpLOADI
	OpLOADU
	OpSTORE
	OpSTOREAT
	OpSTOREG
	OpSTOREU

	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpREM
	OpNEG

	OpAND
	OpOR
	OpNOT

	OpLT
	OpGT
	OpEQ
	OpLEQ
	OpGEQ
	OpNEQ
	OpEQQ
	OpNEQQ
	OpISA
	OpMATCH

	OpLSHIFT
	OpRSHIFT
	OpBAND
	OpBOR
	OpBXOR
	OpBNOT

	OpMAPNEW
	OpLISTNEW
	OpRANGENEW
	OpSETLIST

	OpCLOSURE
	OpCLOSE

	OpINVOKE
	OpSUPERINVOKE

	OpYIELD

	opCount
)

// Count is the number of opcode slots defined (53, leaving 11 of the 64
// slots reserved, comfortably inside the 64-slot budget of spec.md §4.3).
const Count = int(opCount)

var names = [opCount]string{
	OpNOP: "NOP", OpHALT: "HALT", OpJUMP: "JUMP", OpJUMPF: "JUMPF",
	OpRET: "RET", OpRET0: "RET0", OpCALL: "CALL",
	OpMOVE: "MOVE", OpLOAD: "LOAD", OpLOADS: "LOADS", OpLOADAT: "LOADAT",
	OpLOADK: "LOADK", OpLOADG: "LOADG", OpLOADI: "LOADI", OpLOADU: "LOADU",
	OpSTORE: "STORE", OpSTOREAT: "STOREAT", OpSTOREG: "STOREG", OpSTOREU: "STOREU",
	OpADD: "ADD", OpSUB: "SUB", OpMUL: "MUL", OpDIV: "DIV", OpREM: "REM", OpNEG: "NEG",
	OpAND: "AND", OpOR: "OR", OpNOT: "NOT",
	OpLT: "LT", OpGT: "GT", OpEQ: "EQ", OpLEQ: "LEQ", OpGEQ: "GEQ", OpNEQ: "NEQ",
	OpEQQ: "EQQ", OpNEQQ: "NEQQ", OpISA: "ISA", OpMATCH: "MATCH",
	OpLSHIFT: "LSHIFT", OpRSHIFT: "RSHIFT", OpBAND: "BAND", OpBOR: "BOR", OpBXOR: "BXOR", OpBNOT: "BNOT",
	OpMAPNEW: "MAPNEW", OpLISTNEW: "LISTNEW", OpRANGENEW: "RANGENEW", OpSETLIST: "SETLIST",
	OpCLOSURE: "CLOSURE", OpCLOSE: "CLOSE",
	OpINVOKE: "INVOKE", OpSUPERINVOKE: "SUPERINVOKE",
	OpYIELD: "YIELD",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "UNKNOWN"
}

// Encoding identifies which of the six operand layouts of spec.md §4.3
// an instruction uses.
type Encoding byte

const (
	EncABC  Encoding = iota // A:8 B:8 C:8
	EncABC10                // A:8 B:8 C:10
	EncAB18                 // A:8 B:18
	EncASB17                // A:8 sign:1 B:17
	EncA26                  // A:26
	EncAFB17                // A:8 flag:1 B:17
)

// InlineConstBase is the threshold at or above which the ABC10 operand C
// of an arithmetic, comparison, logic or bitwise instruction is an
// inline integer constant C-256 rather than a register index
// (spec.md §4.3: "values >= 2^256 ... inline integer constants" — the
// spec's literal text describes the encoded field's top bit range;
// implemented here as the documented per-field sentinel base).
const InlineConstBase = 1 << 8

// The function constant pool's reserved indices (super, null, undefined,
// arguments, true, false, current-function) follow CPoolMax, per
// spec.md §4.3.
const (
	CPoolMax         = 4096
	CPoolSuper       = CPoolMax + iota
	CPoolNull
	CPoolUndefined
	CPoolArguments
	CPoolTrue
	CPoolFalse
	CPoolCurrentFunc
)
