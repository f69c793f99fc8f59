// Package memory implements ASML's flat, byte-addressable machine
// memory: a fixed-size, zero-initialized byte array with bounds-checked
// sequential load/store.
package memory

import "encoding/binary"

// DefaultSize is the size New uses when it is given a size of zero or
// less (see config.Config.Memory.Size).
const DefaultSize = 1 << 16

// Memory is a process-instance-scoped flat byte store, passed
// explicitly to whatever needs it so more than one interpreter
// instance can run without sharing state.
type Memory struct {
	bytes []byte
}

// New allocates a zero-initialized memory of the given size.
func New(size int) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{bytes: make([]byte, size)}
}

// Size returns the total addressable byte count.
func (m *Memory) Size() int {
	return len(m.bytes)
}

// Store writes length bytes from src[0:length] to address addr.
// It fails (returns false) if addr or length is negative, if addr+length
// exceeds the memory size or overflows, or if src is shorter than length.
// It does not limit length to 1..8: StoreInt applies that limit for
// numeric stores, and StoreBytes calls Store with payloads of any length.
func (m *Memory) Store(src []byte, addr, length int) bool {
	if !m.inBounds(addr, length) || length > len(src) {
		return false
	}
	copy(m.bytes[addr:addr+length], src[:length])
	return true
}

// Load reads length bytes from address addr into dst[0:length].
func (m *Memory) Load(dst []byte, addr, length int) bool {
	if !m.inBounds(addr, length) || length > len(dst) {
		return false
	}
	copy(dst[:length], m.bytes[addr:addr+length])
	return true
}

// StoreInt writes the low `length` bytes (1..8) of v, little-endian, to
// address addr.
func (m *Memory) StoreInt(v int64, addr, length int) bool {
	if length < 1 || length > 8 {
		return false
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return m.Store(buf[:length], addr, length)
}

// LoadInt reads `length` bytes (1..8) from address addr, zero-extends
// them, and returns the result as an unsigned 64-bit pattern (callers
// reinterpret the sign as needed).
func (m *Memory) LoadInt(addr, length int) (uint64, bool) {
	if length < 1 || length > 8 {
		return 0, false
	}
	var buf [8]byte
	if !m.Load(buf[:length], addr, length) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(buf[:]), true
}

// StoreBytes writes raw bytes (e.g. a PUT string payload) starting at
// addr, with no length restriction other than fitting in memory. The
// whole range is bounds-checked once; if it does not fit, nothing is
// written.
func (m *Memory) StoreBytes(src []byte, addr int) bool {
	return m.Store(src, addr, len(src))
}

// LoadCString reads bytes from addr until a NUL terminator or the end
// of memory is reached, and returns them without the terminator.
func (m *Memory) LoadCString(addr int) ([]byte, bool) {
	if addr < 0 || addr >= len(m.bytes) {
		return nil, false
	}
	end := addr
	for end < len(m.bytes) && m.bytes[end] != 0 {
		end++
	}
	return m.bytes[addr:end], true
}

func (m *Memory) inBounds(addr, length int) bool {
	if addr < 0 || length < 0 {
		return false
	}
	end := addr + length
	if end < addr { // overflow
		return false
	}
	return end <= len(m.bytes)
}
