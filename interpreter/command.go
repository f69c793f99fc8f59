package interpreter

import "asml/token"

// Kind identifies the operation a Command performs.
type Kind int

const (
	KindMov Kind = iota
	KindAdd
	KindSub
	KindCmp
	KindCmpU
	KindAnd
	KindEor
	KindAsr
	KindLsl
	KindLsr
	KindOrr
	KindStore
	KindLoad
	KindPut
	KindPrint
	KindBranch
	KindCall
	KindRet
	KindNop // synthetic terminator for a label declared at end of file
)

// Cond is the branch-condition tag carried by a conditional BRANCH
// command; NONE makes BRANCH unconditional.
type Cond int

const (
	CondNone Cond = iota
	CondEqual
	CondNotEqual
	CondGreater
	CondGreaterEqual
	CondLess
	CondLessEqual
)

// CondFromToken maps a lexer keyword token to its branch condition, for
// use by the parser when it recognizes a BRANCH* mnemonic.
func CondFromToken(t token.Type) (Cond, bool) {
	switch t {
	case token.BRANCH:
		return CondNone, true
	case token.BRANCH_EQ:
		return CondEqual, true
	case token.BRANCH_NE:
		return CondNotEqual, true
	case token.BRANCH_GT:
		return CondGreater, true
	case token.BRANCH_GE:
		return CondGreaterEqual, true
	case token.BRANCH_LT:
		return CondLess, true
	case token.BRANCH_LE:
		return CondLessEqual, true
	default:
		return CondNone, false
	}
}

// OperandKind tags which payload field of an Operand is active.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandNumber
	OperandBase
	OperandString
)

// Operand is a tagged union: exactly one of Number/Base/Str is
// meaningful, selected by Kind. Number serves both as a signed
// immediate and as a register index (0..31) depending on where the
// operand appears; Base carries a single base-signifier byte
// ('d','x','b','s') used by PRINT.
type Operand struct {
	Kind   OperandKind
	Number int64
	Base   byte
	Str    string
}

// Command is one parsed ASML instruction. It exclusively owns its
// string operand. Three operand slots and four role flags are carried
// unconditionally even though most instructions use only a subset,
// keeping every Command the same fixed size.
type Command struct {
	Kind Kind
	Line int

	Dest int // register index, when applicable

	ValA         Operand
	IsAImmediate bool
	IsAString    bool

	ValB         Operand
	IsBImmediate bool
	IsBString    bool

	Cond Cond
}

// TargetLabel returns the BRANCH*/CALL target name carried in ValA,
// which the parser always encodes as an OperandString for these kinds.
func (c *Command) TargetLabel() string {
	return c.ValA.Str
}

// PutLiteral returns the PUT string literal carried in ValB, which the
// parser always encodes as an OperandString for KindPut.
func (c *Command) PutLiteral() string {
	return c.ValB.Str
}
