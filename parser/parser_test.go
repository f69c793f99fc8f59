package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asml/interpreter"
	"asml/lexer"
)

func parse(t *testing.T, src string) *interpreter.Program {
	t.Helper()
	p := New(lexer.New(src), 16)
	prog, err := p.Parse()
	require.NoError(t, err)
	require.False(t, p.HadError)
	return prog
}

func TestParseMovAndAdd(t *testing.T) {
	prog := parse(t, "mov x1 5\nmov x2 7\nadd x3 x1 x2\n")
	require.Equal(t, 3, prog.Len())

	mov1 := prog.At(0)
	assert.Equal(t, interpreter.KindMov, mov1.Kind)
	assert.Equal(t, 1, mov1.Dest)
	assert.Equal(t, int64(5), mov1.ValA.Number)

	add := prog.At(2)
	assert.Equal(t, interpreter.KindAdd, add.Kind)
	assert.Equal(t, 3, add.Dest)
	assert.Equal(t, int64(1), add.ValA.Number)
	assert.Equal(t, int64(2), add.ValB.Number)
	assert.False(t, add.IsBImmediate)
}

func TestParseAddWithImmediateB(t *testing.T) {
	prog := parse(t, "add x3 x1 10\n")
	add := prog.At(0)
	assert.True(t, add.IsBImmediate)
	assert.Equal(t, int64(10), add.ValB.Number)
}

func TestParseHexAndBinaryImmediates(t *testing.T) {
	prog := parse(t, "mov x1 0xff\nlsl x2 x1 0b10\n")
	assert.Equal(t, int64(0xff), prog.At(0).ValA.Number)
	assert.Equal(t, int64(2), prog.At(1).ValB.Number)
}

func TestParseLabelsAndBranch(t *testing.T) {
	src := "loop:\n  add x1 x1 1\n  b loop\n"
	p := New(lexer.New(src), 16)
	prog, err := p.Parse()
	require.NoError(t, err)

	idx, ok := p.Labels().Get("loop")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	branch := prog.At(1)
	assert.Equal(t, interpreter.KindBranch, branch.Kind)
	assert.Equal(t, interpreter.CondNone, branch.Cond)
	assert.Equal(t, "loop", branch.TargetLabel())
}

func TestParseConditionalBranches(t *testing.T) {
	prog := parse(t, "beq eq\nbne ne\nbgt gt\nbge ge\nblt lt\nble le\neq:\nne:\ngt:\nge:\nlt:\nle:\n")
	conds := []interpreter.Cond{
		interpreter.CondEqual, interpreter.CondNotEqual, interpreter.CondGreater,
		interpreter.CondGreaterEqual, interpreter.CondLess, interpreter.CondLessEqual,
	}
	for i, want := range conds {
		assert.Equal(t, want, prog.At(i).Cond)
	}
}

func TestParseCallAndRet(t *testing.T) {
	prog := parse(t, "call dbl\nret\n")
	assert.Equal(t, interpreter.KindCall, prog.At(0).Kind)
	assert.Equal(t, "dbl", prog.At(0).TargetLabel())
	assert.Equal(t, interpreter.KindRet, prog.At(1).Kind)
}

func TestParsePutAndPrint(t *testing.T) {
	prog := parse(t, `put x1 "hi"` + "\nprint x1 s\n")
	put := prog.At(0)
	assert.Equal(t, interpreter.KindPut, put.Kind)
	assert.Equal(t, "hi", put.PutLiteral())

	pr := prog.At(1)
	assert.Equal(t, interpreter.KindPrint, pr.Kind)
	assert.Equal(t, byte('s'), pr.ValB.Base)
}

func TestParseStoreAndLoad(t *testing.T) {
	prog := parse(t, "store x1 x2 8\nload x3 8 x2\n")
	st := prog.At(0)
	assert.Equal(t, interpreter.KindStore, st.Kind)
	assert.Equal(t, 1, st.Dest)
	assert.False(t, st.IsAImmediate)
	assert.Equal(t, int64(8), st.ValB.Number)

	ld := prog.At(1)
	assert.Equal(t, interpreter.KindLoad, ld.Kind)
	assert.Equal(t, 3, ld.Dest)
	assert.Equal(t, int64(8), ld.ValA.Number)
}

func TestParseLabelAtEndOfFile(t *testing.T) {
	prog := parse(t, "mov x1 1\ndone:\n")
	require.Equal(t, 2, prog.Len())
	assert.Equal(t, interpreter.KindNop, prog.At(1).Kind)
}

func TestParseRejectsOutOfRangeRegister(t *testing.T) {
	p := New(lexer.New("add x32 x1 x2\n"), 16)
	_, err := p.Parse()
	require.Error(t, err)
	assert.True(t, p.HadError)
}

func TestParseRejectsMovWithRegisterOperand(t *testing.T) {
	p := New(lexer.New("mov x1 x2\n"), 16)
	_, err := p.Parse()
	require.Error(t, err)
	assert.True(t, p.HadError)
}

func TestParseReportsIllegalCharacterAsLexicalError(t *testing.T) {
	p := New(lexer.New("mov x1 $\n"), 16)
	_, err := p.Parse()
	require.Error(t, err)
	assert.True(t, p.HadError)
	assert.Contains(t, err.Error(), "lexical error")
}
