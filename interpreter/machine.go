// Package interpreter executes a parsed ASML Program against machine
// state: 32 signed 64-bit registers, three mutually exclusive
// comparison flags, a call stack, and a reference to byte memory and
// the label map used to resolve branch/call targets.
//
// Execution is a straightforward fetch-decode-execute loop: every
// register access is bounds-checked before use, and the first error
// halts the machine rather than letting it run on in a bad state.
package interpreter

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"asml/asmlerr"
	"asml/label"
	"asml/memory"
)

// NumRegisters is the fixed register file size (x0..x31).
const NumRegisters = 32

// frame is a call-stack entry: a snapshot of all registers plus the
// command index to resume at on RET.
type frame struct {
	saved  [NumRegisters]int64
	resume int
}

// Machine holds everything needed to execute a Program: registers,
// comparison flags, the call stack, a non-owning reference to the
// label map, and the fatal-error flag. It keeps no package-level
// global state, so more than one Machine can run independently.
type Machine struct {
	Regs [NumRegisters]int64

	greater bool
	equal   bool
	less    bool

	Mem    *memory.Memory
	Labels *label.Map

	stack []frame

	HadError bool
	Err      error

	current int // index into the program, or -1 to halt

	// Stdout is where PRINT writes; defaults to os.Stdout.
	Stdout io.Writer
}

// New creates a Machine with zeroed registers, ready to Run a Program.
func New(mem *memory.Memory, labels *label.Map) *Machine {
	return &Machine{Mem: mem, Labels: labels, Stdout: os.Stdout}
}

// debugf writes a trace line only when ASML_DEBUG is set.
func debugf(format string, args ...any) {
	if os.Getenv("ASML_DEBUG") == "" {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// Run executes prog starting at command 0 until a RET against an empty
// stack, a NULL/out-of-range current command, or a fatal error.
func (m *Machine) Run(prog *Program) error {
	m.current = 0

	for m.current >= 0 && m.current < prog.Len() && !m.HadError {
		cmd := prog.At(m.current)
		debugf("%04d %v\n", m.current, cmd.Kind)

		if err := m.step(cmd); err != nil {
			m.HadError = true
			m.Err = err
			return err
		}
	}

	// drop any call-stack entries left by unreturned CALLs
	m.stack = nil
	return nil
}

func (m *Machine) regInBounds(r int) bool {
	return r >= 0 && r < NumRegisters
}

func (m *Machine) valueOf(op Operand, immediate bool) (int64, error) {
	if immediate {
		return op.Number, nil
	}
	r := int(op.Number)
	if !m.regInBounds(r) {
		return 0, asmlerr.NewRuntime("register x%d is out of range", r)
	}
	return m.Regs[r], nil
}

// step executes a single command and advances/rewrites m.current.
func (m *Machine) step(cmd *Command) error {
	next := m.current + 1

	switch cmd.Kind {
	case KindMov:
		if !m.regInBounds(cmd.Dest) {
			return asmlerr.NewRuntime("register x%d is out of range", cmd.Dest)
		}
		m.Regs[cmd.Dest] = cmd.ValA.Number

	case KindAdd, KindSub:
		a, err := m.valueOf(cmd.ValA, false)
		if err != nil {
			return err
		}
		b, err := m.valueOf(cmd.ValB, cmd.IsBImmediate)
		if err != nil {
			return err
		}
		if !m.regInBounds(cmd.Dest) {
			return asmlerr.NewRuntime("register x%d is out of range", cmd.Dest)
		}
		if cmd.Kind == KindAdd {
			m.Regs[cmd.Dest] = a + b
		} else {
			m.Regs[cmd.Dest] = a - b
		}

	case KindCmp, KindCmpU:
		if !m.regInBounds(cmd.Dest) {
			return asmlerr.NewRuntime("register x%d is out of range", cmd.Dest)
		}
		lhs := m.Regs[cmd.Dest]
		rhs, err := m.valueOf(cmd.ValA, cmd.IsAImmediate)
		if err != nil {
			return err
		}
		if cmd.Kind == KindCmp {
			m.setFlags(lhs < rhs, lhs == rhs, lhs > rhs)
		} else {
			ul, ur := uint64(lhs), uint64(rhs)
			m.setFlags(ul < ur, ul == ur, ul > ur)
		}

	case KindAnd, KindEor, KindOrr:
		a, err := m.valueOf(cmd.ValA, false)
		if err != nil {
			return err
		}
		b, err := m.valueOf(cmd.ValB, false)
		if err != nil {
			return err
		}
		if !m.regInBounds(cmd.Dest) {
			return asmlerr.NewRuntime("register x%d is out of range", cmd.Dest)
		}
		switch cmd.Kind {
		case KindAnd:
			m.Regs[cmd.Dest] = a & b
		case KindEor:
			m.Regs[cmd.Dest] = a ^ b
		case KindOrr:
			m.Regs[cmd.Dest] = a | b
		}

	case KindAsr, KindLsl, KindLsr:
		a, err := m.valueOf(cmd.ValA, false)
		if err != nil {
			return err
		}
		shift := uint(cmd.ValB.Number)
		if !m.regInBounds(cmd.Dest) {
			return asmlerr.NewRuntime("register x%d is out of range", cmd.Dest)
		}
		switch cmd.Kind {
		case KindAsr:
			m.Regs[cmd.Dest] = a >> shift
		case KindLsl:
			m.Regs[cmd.Dest] = a << shift
		case KindLsr:
			m.Regs[cmd.Dest] = int64(uint64(a) >> shift)
		}

	case KindStore:
		if !m.regInBounds(cmd.Dest) {
			return asmlerr.NewRuntime("register x%d is out of range", cmd.Dest)
		}
		addr64, err := m.valueOf(cmd.ValA, cmd.IsAImmediate)
		if err != nil {
			return err
		}
		length := int(cmd.ValB.Number)
		if !m.Mem.StoreInt(m.Regs[cmd.Dest], int(addr64), length) {
			return asmlerr.NewRuntime("store out of bounds: addr=%d length=%d", addr64, length)
		}

	case KindLoad:
		if !m.regInBounds(cmd.Dest) {
			return asmlerr.NewRuntime("register x%d is out of range", cmd.Dest)
		}
		length := int(cmd.ValA.Number)
		addr64, err := m.valueOf(cmd.ValB, cmd.IsBImmediate)
		if err != nil {
			return err
		}
		v, ok := m.Mem.LoadInt(int(addr64), length)
		if !ok {
			return asmlerr.NewRuntime("load out of bounds: addr=%d length=%d", addr64, length)
		}
		m.Regs[cmd.Dest] = int64(v)

	case KindPut:
		addr64, err := m.valueOf(cmd.ValA, cmd.IsAImmediate)
		if err != nil {
			return err
		}
		payload := append([]byte(cmd.PutLiteral()), 0)
		if !m.Mem.StoreBytes(payload, int(addr64)) {
			return asmlerr.NewRuntime("put out of bounds: addr=%d length=%d", addr64, len(payload))
		}

	case KindPrint:
		if err := m.doPrint(cmd); err != nil {
			return err
		}

	case KindBranch:
		if m.condHolds(cmd.Cond) {
			target, ok := m.Labels.Get(cmd.TargetLabel())
			if !ok {
				return asmlerr.NewRuntime("unknown label %q", cmd.TargetLabel())
			}
			next = target
		}

	case KindCall:
		target, ok := m.Labels.Get(cmd.TargetLabel())
		if !ok {
			return asmlerr.NewRuntime("unknown label %q", cmd.TargetLabel())
		}
		m.stack = append(m.stack, frame{saved: m.Regs, resume: m.current + 1})
		next = target

	case KindRet:
		if len(m.stack) == 0 {
			// empty-stack RET terminates execution cleanly, not an error.
			m.current = -1
			return nil
		}
		top := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		x0 := m.Regs[0]
		m.Regs = top.saved
		m.Regs[0] = x0
		next = top.resume

	case KindNop:
		// no-op terminator for a label declared at end of file

	default:
		return asmlerr.NewRuntime("unhandled command kind %v", cmd.Kind)
	}

	m.current = next
	return nil
}

func (m *Machine) setFlags(less, equal, greater bool) {
	m.less, m.equal, m.greater = less, equal, greater
}

func (m *Machine) condHolds(c Cond) bool {
	switch c {
	case CondNone:
		return true
	case CondEqual:
		return m.equal
	case CondNotEqual:
		return !m.equal
	case CondGreater:
		return m.greater
	case CondGreaterEqual:
		return m.greater || m.equal
	case CondLess:
		return m.less
	case CondLessEqual:
		return m.less || m.equal
	default:
		return false
	}
}

func (m *Machine) doPrint(cmd *Command) error {
	v, err := m.valueOf(cmd.ValA, cmd.IsAImmediate)
	if err != nil {
		return err
	}

	switch cmd.ValB.Base {
	case 'd':
		fmt.Fprintf(m.Stdout, "%d\n", v)
	case 'x':
		fmt.Fprintf(m.Stdout, "0x%s\n", strconv.FormatUint(uint64(v), 16))
	case 'b':
		fmt.Fprintf(m.Stdout, "0b%s\n", strconv.FormatUint(uint64(v), 2))
	case 's':
		bytes, ok := m.Mem.LoadCString(int(v))
		if !ok {
			return asmlerr.NewRuntime("print s: address %d out of bounds", v)
		}
		fmt.Fprintf(m.Stdout, "%s\n", string(bytes))
	default:
		return asmlerr.NewRuntime("unknown print base %q", cmd.ValB.Base)
	}
	return nil
}

// Flags returns the current comparison flags (less, equal, greater),
// exposed for the diagnostic Dump and for tests.
func (m *Machine) Flags() (less, equal, greater bool) {
	return m.less, m.equal, m.greater
}

// Dump writes the diagnostic state: the error flag, the three
// comparison flags, and all 32 registers in decimal, 8 per line.
func (m *Machine) Dump(w io.Writer) {
	fmt.Fprintf(w, "error=%t greater=%t equal=%t less=%t\n", m.HadError, m.greater, m.equal, m.less)
	for i := 0; i < NumRegisters; i++ {
		if i > 0 && i%8 == 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "x%-2d=%-8d ", i, m.Regs[i])
	}
	fmt.Fprintln(w)
}
