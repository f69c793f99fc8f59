package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asml/config"
	"asml/interpreter"
	"asml/lexer"
	"asml/memory"
	"asml/parser"
)

// run lexes, parses and executes src, returning everything PRINT wrote
// to stdout and the Machine it ran against.
func run(t *testing.T, src string) (string, *interpreter.Machine, error) {
	t.Helper()
	cfg := config.DefaultConfig()

	p := parser.New(lexer.New(src), cfg.Labels.Capacity)
	prog, err := p.Parse()
	require.NoError(t, err)

	mach := interpreter.New(memory.New(cfg.Memory.Size), p.Labels())
	var out bytes.Buffer
	mach.Stdout = &out

	runErr := mach.Run(prog)
	return out.String(), mach, runErr
}

func TestAddAndPrintDecimal(t *testing.T) {
	out, _, err := run(t, "mov x1 5\nmov x2 7\nadd x3 x1 x2\nprint x3 d\n")
	require.NoError(t, err)
	assert.Equal(t, "12\n", out)
}

func TestPrintHex(t *testing.T) {
	out, _, err := run(t, "mov x1 0xff\nprint x1 x\n")
	require.NoError(t, err)
	assert.Equal(t, "0xff\n", out)
}

func TestCompareAndBranch(t *testing.T) {
	src := "mov x1 5\nmov x2 5\ncmp x1 x2\nbeq eq\nmov x3 0\nb end\neq:\nmov x3 1\nend:\nprint x3 d\n"
	out, _, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestPutAndPrintString(t *testing.T) {
	out, _, err := run(t, `mov x1 0`+"\n"+`put x1 "hi"`+"\n"+`print x1 s`+"\n")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
}

func TestCallPreservesX0Result(t *testing.T) {
	src := "mov x1 3\ncall dbl\nprint x0 d\nb end\ndbl:\nadd x0 x1 x1\nret\nend:\n"
	out, _, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, "6\n", out)
}

func TestShiftAndPrintBinary(t *testing.T) {
	out, _, err := run(t, "mov x1 5\nlsl x2 x1 2\nprint x2 b\n")
	require.NoError(t, err)
	assert.Equal(t, "0b10100\n", out)
}

func TestUnknownLabelIsRuntimeError(t *testing.T) {
	_, mach, err := run(t, "b nowhere\n")
	require.Error(t, err)
	assert.True(t, mach.HadError)
}

func TestMovRejectsRegisterOperand(t *testing.T) {
	cfg := config.DefaultConfig()
	p := parser.New(lexer.New("mov x1 x2\n"), cfg.Labels.Capacity)
	_, err := p.Parse()
	require.Error(t, err)
	assert.True(t, p.HadError)
}

func TestOutOfRangeRegisterIsSyntaxError(t *testing.T) {
	cfg := config.DefaultConfig()
	p := parser.New(lexer.New("add x32 x1 x2\n"), cfg.Labels.Capacity)
	_, err := p.Parse()
	require.Error(t, err)
	assert.True(t, p.HadError)
}

func TestRetOnEmptyStackHaltsCleanly(t *testing.T) {
	_, mach, err := run(t, "mov x1 1\nret\n")
	require.NoError(t, err)
	assert.False(t, mach.HadError)
}

func TestStoreLoadRoundTripThroughMemory(t *testing.T) {
	src := "mov x1 258\nstore x1 x2 2\nload x3 2 x2\nprint x3 d\n"
	out, _, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, "258\n", out)
}

func TestCmpUTreatsNegativeAsLarge(t *testing.T) {
	src := "mov x1 0\nsub x1 x1 1\nmov x2 1\ncmp_u x1 x2\nbgt greater\nmov x3 0\nb end\ngreater:\nmov x3 1\nend:\nprint x3 d\n"
	out, _, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}
