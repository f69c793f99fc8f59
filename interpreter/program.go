package interpreter

// Program is the sequence of commands the parser produces, expressed
// as a vector of nodes addressed by index. "Next" is simply index+1 in
// program order; control transfers rewrite the interpreter's current
// index directly instead of following a pointer field.
type Program struct {
	cmds []Command
}

// NewProgram returns an empty program ready to be appended to by the
// parser.
func NewProgram() *Program {
	return &Program{}
}

// Append adds cmd to the end of the program and returns its index,
// which callers (the parser, via the label map) treat as a stable,
// non-owning reference to that command.
func (p *Program) Append(cmd Command) int {
	p.cmds = append(p.cmds, cmd)
	return len(p.cmds) - 1
}

// Len returns the number of commands in the program.
func (p *Program) Len() int {
	return len(p.cmds)
}

// At returns the command at index i. Callers must only call this with
// indices produced by Append or already validated against Len.
func (p *Program) At(i int) *Command {
	return &p.cmds[i]
}
