// Package parser turns a token stream into an *interpreter.Program and
// a populated label.Map. It's a recursive-descent, one-token-lookahead
// parser: a current/peek token pair, an advance-and-check helper for
// mandatory tokens, and one parse method per mnemonic that emits
// directly into the output program.
package parser

import (
	"strconv"
	"strings"

	"asml/asmlerr"
	"asml/interpreter"
	"asml/label"
	"asml/lexer"
	"asml/token"
)

// Parser consumes tokens from a lexer.Lexer and builds a Program plus a
// label.Map. It never calls os.Exit: the first syntax error sets
// HadError and Err, and the caller decides whether to abort.
type Parser struct {
	lex *lexer.Lexer

	tok  token.Token
	peek token.Token

	prog   *interpreter.Program
	labels *label.Map

	pendingLabel string
	haveLabel    bool

	HadError bool
	Err      error
}

// New creates a Parser reading from l and registering labels into a map
// of the given capacity.
func New(l *lexer.Lexer, labelCapacity int) *Parser {
	p := &Parser{
		lex:    l,
		prog:   interpreter.NewProgram(),
		labels: label.Init(labelCapacity),
	}
	// prime current/peek with two advances
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.tok = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) peekIs(t token.Type) bool {
	return p.peek.Type == t
}

// expect advances past the current token if peek matches t, otherwise
// records an error (see fail) and returns false.
func (p *Parser) expect(t token.Type) bool {
	if p.peekIs(t) {
		p.advance()
		return true
	}
	p.fail("expected next token to be %s, got %s instead", t, p.peek.Type)
	return false
}

// failLexical records a lexical-stage error, raised when the lexer
// itself could not classify a byte as any known token.
func (p *Parser) failLexical(format string, args ...any) {
	if p.HadError {
		return
	}
	p.HadError = true
	p.Err = asmlerr.NewLexical(p.tok.Line, format, args...)
}

func (p *Parser) fail(format string, args ...any) {
	if p.HadError {
		return
	}
	// a byte the lexer could not classify is reported as a lexical error
	// wherever it turns up, not only at the start of a line.
	if p.tok.Type == token.ILLEGAL {
		p.failLexical("unrecognized character %q", p.tok.Literal)
		return
	}
	if p.peek.Type == token.ILLEGAL {
		p.failLexical("unrecognized character %q", p.peek.Literal)
		return
	}
	p.HadError = true
	p.Err = asmlerr.NewSyntax(p.tok.Line, format, args...)
}

// Labels returns the label map populated while parsing.
func (p *Parser) Labels() *label.Map {
	return p.labels
}

// Parse runs the full grammar (`line := label? instruction? NL`) until
// EOF or the first error, and returns the resulting program.
func (p *Parser) Parse() (*interpreter.Program, error) {
	for p.tok.Type != token.EOF && !p.HadError {
		switch {
		case p.tok.Type == token.NL:
			p.advance()

		case p.tok.Type == token.IDENT && p.peekIs(token.COLON):
			p.parseLabel()

		case p.isMnemonic(p.tok.Type):
			p.parseInstruction()

		case p.tok.Type == token.ILLEGAL:
			p.failLexical("unrecognized character %q", p.tok.Literal)

		default:
			p.fail("unexpected token %s (%q)", p.tok.Type, p.tok.Literal)
		}
	}

	if !p.HadError && p.haveLabel {
		// a label declared at end of file with no following
		// instruction registers against a no-op terminator.
		idx := p.prog.Append(interpreter.Command{Kind: interpreter.KindNop, Line: p.tok.Line})
		p.labels.Put(p.pendingLabel, idx)
		p.haveLabel = false
	}

	if p.HadError {
		return nil, p.Err
	}
	return p.prog, nil
}

func (p *Parser) parseLabel() {
	name := p.tok.Literal
	p.advance() // consume IDENT, tok is now COLON
	p.advance() // consume COLON

	if p.haveLabel {
		// two labels back to back with no instruction between them:
		// the earlier one still points at whatever command comes next.
		idx := p.prog.Len()
		p.labels.Put(p.pendingLabel, idx)
	}
	p.pendingLabel = name
	p.haveLabel = true
}

func (p *Parser) isMnemonic(t token.Type) bool {
	switch t {
	case token.MOV, token.ADD, token.SUB, token.CMP, token.CMP_U,
		token.AND, token.EOR, token.ASR, token.LSL, token.LSR, token.ORR,
		token.STORE, token.LOAD, token.PUT, token.PRINT,
		token.BRANCH, token.BRANCH_EQ, token.BRANCH_NE, token.BRANCH_GT,
		token.BRANCH_GE, token.BRANCH_LT, token.BRANCH_LE,
		token.CALL, token.RET:
		return true
	default:
		return false
	}
}

// parseInstruction dispatches on the mnemonic token type.
func (p *Parser) parseInstruction() {
	line := p.tok.Line
	var cmd interpreter.Command
	var ok bool

	switch p.tok.Type {
	case token.MOV:
		cmd, ok = p.movOp()
	case token.ADD:
		cmd, ok = p.addSubOp(interpreter.KindAdd)
	case token.SUB:
		cmd, ok = p.addSubOp(interpreter.KindSub)
	case token.CMP:
		cmd, ok = p.cmpOp(interpreter.KindCmp)
	case token.CMP_U:
		cmd, ok = p.cmpOp(interpreter.KindCmpU)
	case token.AND:
		cmd, ok = p.bitwiseOp(interpreter.KindAnd)
	case token.EOR:
		cmd, ok = p.bitwiseOp(interpreter.KindEor)
	case token.ORR:
		cmd, ok = p.bitwiseOp(interpreter.KindOrr)
	case token.ASR:
		cmd, ok = p.shiftOp(interpreter.KindAsr)
	case token.LSL:
		cmd, ok = p.shiftOp(interpreter.KindLsl)
	case token.LSR:
		cmd, ok = p.shiftOp(interpreter.KindLsr)
	case token.STORE:
		cmd, ok = p.storeOp()
	case token.LOAD:
		cmd, ok = p.loadOp()
	case token.PUT:
		cmd, ok = p.putOp()
	case token.PRINT:
		cmd, ok = p.printOp()
	case token.CALL:
		cmd, ok = p.callOp()
	case token.RET:
		cmd, ok = interpreter.Command{Kind: interpreter.KindRet}, true
	default:
		cmd, ok = p.branchOp()
	}

	if !ok {
		return
	}
	cmd.Line = line

	idx := p.prog.Append(cmd)
	if p.haveLabel {
		p.labels.Put(p.pendingLabel, idx)
		p.haveLabel = false
	}

	if p.peek.Type != token.NL && p.peek.Type != token.EOF {
		p.fail("unexpected trailing token %q after instruction", p.peek.Literal)
		return
	}
	p.advance() // tok is now NL or EOF
	if p.tok.Type == token.NL {
		p.advance() // move onto the next line
	}
}

// --- operand parsers -------------------------------------------------

// variable requires the current token to be an IDENT of the form
// "x<0-31>" and returns the register index.
func (p *Parser) variable() (int, bool) {
	if p.tok.Type != token.IDENT || !strings.HasPrefix(p.tok.Literal, "x") {
		p.fail("expected a register operand, got %q", p.tok.Literal)
		return 0, false
	}
	n, err := strconv.Atoi(p.tok.Literal[1:])
	if err != nil || n < 0 || n > 31 {
		p.fail("register out of range: %q", p.tok.Literal)
		return 0, false
	}
	return n, true
}

// immediate requires the current token to be a NUM and parses decimal,
// 0x-hex or 0b-binary per spec.
func (p *Parser) immediate() (int64, bool) {
	if p.tok.Type != token.NUM {
		p.fail("expected an immediate value, got %q", p.tok.Literal)
		return 0, false
	}
	lit := p.tok.Literal
	var n int64
	var err error
	switch {
	case strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X"):
		n, err = strconv.ParseInt(lit[2:], 16, 64)
	case strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B"):
		n, err = strconv.ParseInt(lit[2:], 2, 64)
	default:
		n, err = strconv.ParseInt(lit, 10, 64)
	}
	if err != nil {
		p.fail("malformed numeric literal %q", lit)
		return 0, false
	}
	return n, true
}

// varOrImm tries immediate first when the current token is a NUM,
// otherwise falls back to variable. isImmediate reports which branch
// was taken.
func (p *Parser) varOrImm() (operand interpreter.Operand, isImmediate bool, ok bool) {
	if p.tok.Type == token.NUM {
		n, ok := p.immediate()
		if !ok {
			return interpreter.Operand{}, false, false
		}
		return interpreter.Operand{Kind: interpreter.OperandNumber, Number: n}, true, true
	}
	reg, ok := p.variable()
	if !ok {
		return interpreter.Operand{}, false, false
	}
	return interpreter.Operand{Kind: interpreter.OperandNumber, Number: int64(reg)}, false, true
}

// base requires a single-byte lexeme in {d,x,b,s}. It checks the
// literal rather than the token type because "b" lexes as the BRANCH
// keyword, not an IDENT, yet is also a valid print base.
func (p *Parser) base() (byte, bool) {
	if len(p.tok.Literal) != 1 {
		p.fail("expected a print base (d, x, b or s), got %q", p.tok.Literal)
		return 0, false
	}
	c := p.tok.Literal[0]
	if c != 'd' && c != 'x' && c != 'b' && c != 's' {
		p.fail("unknown print base %q", p.tok.Literal)
		return 0, false
	}
	return c, true
}

// --- instruction shapes -----------------------------------------------

func (p *Parser) movOp() (interpreter.Command, bool) {
	if !p.expect(token.IDENT) {
		return interpreter.Command{}, false
	}
	dest, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.expect(token.NUM) {
		return interpreter.Command{}, false
	}
	imm, ok := p.immediate()
	if !ok {
		return interpreter.Command{}, false
	}
	return interpreter.Command{
		Kind: interpreter.KindMov,
		Dest: dest,
		ValA: interpreter.Operand{Kind: interpreter.OperandNumber, Number: imm},
	}, true
}

func (p *Parser) addSubOp(kind interpreter.Kind) (interpreter.Command, bool) {
	if !p.expect(token.IDENT) {
		return interpreter.Command{}, false
	}
	dest, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	a, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	b, isImm, ok := p.varOrImm()
	if !ok {
		return interpreter.Command{}, false
	}
	return interpreter.Command{
		Kind:         kind,
		Dest:         dest,
		ValA:         interpreter.Operand{Kind: interpreter.OperandNumber, Number: int64(a)},
		ValB:         b,
		IsBImmediate: isImm,
	}, true
}

func (p *Parser) bitwiseOp(kind interpreter.Kind) (interpreter.Command, bool) {
	if !p.expect(token.IDENT) {
		return interpreter.Command{}, false
	}
	dest, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	a, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	b, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	return interpreter.Command{
		Kind: kind,
		Dest: dest,
		ValA: interpreter.Operand{Kind: interpreter.OperandNumber, Number: int64(a)},
		ValB: interpreter.Operand{Kind: interpreter.OperandNumber, Number: int64(b)},
	}, true
}

func (p *Parser) shiftOp(kind interpreter.Kind) (interpreter.Command, bool) {
	if !p.expect(token.IDENT) {
		return interpreter.Command{}, false
	}
	dest, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	a, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	imm, ok := p.immediate()
	if !ok {
		return interpreter.Command{}, false
	}
	return interpreter.Command{
		Kind: kind,
		Dest: dest,
		ValA: interpreter.Operand{Kind: interpreter.OperandNumber, Number: int64(a)},
		ValB: interpreter.Operand{Kind: interpreter.OperandNumber, Number: imm},
	}, true
}

func (p *Parser) cmpOp(kind interpreter.Kind) (interpreter.Command, bool) {
	if !p.expect(token.IDENT) {
		return interpreter.Command{}, false
	}
	dest, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	a, isImm, ok := p.varOrImm()
	if !ok {
		return interpreter.Command{}, false
	}
	return interpreter.Command{
		Kind:         kind,
		Dest:         dest,
		ValA:         a,
		IsAImmediate: isImm,
	}, true
}

func (p *Parser) storeOp() (interpreter.Command, bool) {
	if !p.expect(token.IDENT) {
		return interpreter.Command{}, false
	}
	dest, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	a, isImm, ok := p.varOrImm()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.expect(token.NUM) {
		return interpreter.Command{}, false
	}
	length, ok := p.immediate()
	if !ok {
		return interpreter.Command{}, false
	}
	return interpreter.Command{
		Kind:         interpreter.KindStore,
		Dest:         dest,
		ValA:         a,
		IsAImmediate: isImm,
		ValB:         interpreter.Operand{Kind: interpreter.OperandNumber, Number: length},
	}, true
}

func (p *Parser) loadOp() (interpreter.Command, bool) {
	if !p.expect(token.IDENT) {
		return interpreter.Command{}, false
	}
	dest, ok := p.variable()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.expect(token.NUM) {
		return interpreter.Command{}, false
	}
	length, ok := p.immediate()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	b, isImm, ok := p.varOrImm()
	if !ok {
		return interpreter.Command{}, false
	}
	return interpreter.Command{
		Kind:         interpreter.KindLoad,
		Dest:         dest,
		ValA:         interpreter.Operand{Kind: interpreter.OperandNumber, Number: length},
		ValB:         b,
		IsBImmediate: isImm,
	}, true
}

func (p *Parser) putOp() (interpreter.Command, bool) {
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	a, isImm, ok := p.varOrImm()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.expect(token.STR) {
		return interpreter.Command{}, false
	}
	return interpreter.Command{
		Kind:         interpreter.KindPut,
		ValA:         a,
		IsAImmediate: isImm,
		ValB:         interpreter.Operand{Kind: interpreter.OperandString, Str: p.tok.Literal},
		IsBString:    true,
	}, true
}

func (p *Parser) printOp() (interpreter.Command, bool) {
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	a, isImm, ok := p.varOrImm()
	if !ok {
		return interpreter.Command{}, false
	}
	if !p.advanceToOperand() {
		return interpreter.Command{}, false
	}
	baseByte, ok := p.base()
	if !ok {
		return interpreter.Command{}, false
	}
	return interpreter.Command{
		Kind:         interpreter.KindPrint,
		ValA:         a,
		IsAImmediate: isImm,
		ValB:         interpreter.Operand{Kind: interpreter.OperandBase, Base: baseByte},
	}, true
}

func (p *Parser) callOp() (interpreter.Command, bool) {
	if !p.expect(token.IDENT) {
		return interpreter.Command{}, false
	}
	name := p.tok.Literal
	return interpreter.Command{
		Kind:      interpreter.KindCall,
		ValA:      interpreter.Operand{Kind: interpreter.OperandString, Str: name},
		IsAString: true,
	}, true
}

func (p *Parser) branchOp() (interpreter.Command, bool) {
	cond, ok := interpreter.CondFromToken(p.tok.Type)
	if !ok {
		p.fail("unknown mnemonic %q", p.tok.Literal)
		return interpreter.Command{}, false
	}
	if !p.expect(token.IDENT) {
		return interpreter.Command{}, false
	}
	name := p.tok.Literal
	return interpreter.Command{
		Kind:      interpreter.KindBranch,
		Cond:      cond,
		ValA:      interpreter.Operand{Kind: interpreter.OperandString, Str: name},
		IsAString: true,
	}, true
}

// advanceToOperand moves past a mnemonic or a preceding operand onto
// the token that starts the next operand; it fails if that would run
// into a line terminator early.
func (p *Parser) advanceToOperand() bool {
	if p.peek.Type == token.NL || p.peek.Type == token.EOF {
		p.fail("unexpected end of line, expected an operand")
		return false
	}
	p.advance()
	return true
}
