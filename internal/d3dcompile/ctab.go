package d3dcompile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Constant table errors.
var (
	// ErrNoConstantTable is returned when the bytecode has no CTAB comment.
	ErrNoConstantTable = errors.New("d3dcompile: no constant table in bytecode")

	// ErrMalformedConstantTable is returned for truncated or inconsistent tables.
	ErrMalformedConstantTable = errors.New("d3dcompile: malformed constant table")

	// ErrConstantNotFound is returned by ConstantTable.Lookup for unknown names.
	ErrConstantNotFound = errors.New("d3dcompile: constant not found")
)

// RegisterSet is the register file a constant lives in.
type RegisterSet uint16

// Register sets of shader model 3.
const (
	RegisterBool RegisterSet = iota
	RegisterInt4
	RegisterFloat4
	RegisterSampler
)

// String returns the register prefix used in assembly listings.
func (s RegisterSet) String() string {
	switch s {
	case RegisterBool:
		return "b"
	case RegisterInt4:
		return "i"
	case RegisterFloat4:
		return "c"
	case RegisterSampler:
		return "s"
	default:
		return fmt.Sprintf("RegisterSet(%d)", uint16(s))
	}
}

// Constant describes one named shader constant.
type Constant struct {
	Name  string
	Set   RegisterSet
	Index uint16
	Count uint16
}

// ConstantTable maps constant names to registers.
type ConstantTable struct {
	Target    string
	Creator   string
	Constants []Constant
}

// Lookup returns the constant called name.
func (t *ConstantTable) Lookup(name string) (Constant, error) {
	for _, c := range t.Constants {
		if c.Name == name {
			return c, nil
		}
	}
	return Constant{}, fmt.Errorf("%w: %q", ErrConstantNotFound, name)
}

const (
	tokenComment = 0xFFFE
	tokenEnd     = 0x0000FFFF
	fourCCCTAB   = 0x42415443 // "CTAB"

	ctabHeaderSize = 28
	ctabInfoSize   = 20
)

// ParseConstantTable extracts the CTAB comment block from SM1-3 bytecode.
//
// Bytecode is a stream of little-endian DWORD tokens: a version token, then
// instructions. Comments have opcode 0xFFFE with their DWORD length in bits
// 16-30, and the compiler stores the constant table in the first comment
// whose payload starts with the "CTAB" fourcc.
func ParseConstantTable(bytecode []byte) (*ConstantTable, error) {
	if len(bytecode) < 8 || len(bytecode)%4 != 0 {
		return nil, fmt.Errorf("%w: bytecode length %d", ErrMalformedConstantTable, len(bytecode))
	}
	off := 4 // skip version token
	for off+4 <= len(bytecode) {
		tok := binary.LittleEndian.Uint32(bytecode[off:])
		if tok == tokenEnd {
			break
		}
		if tok&0xFFFF != tokenComment {
			// Comments precede instructions; the first instruction ends the search.
			break
		}
		n := int(tok>>16) & 0x7FFF
		body := off + 4
		end := body + n*4
		if end > len(bytecode) {
			return nil, fmt.Errorf("%w: comment overruns bytecode", ErrMalformedConstantTable)
		}
		if n >= 1 && binary.LittleEndian.Uint32(bytecode[body:]) == fourCCCTAB {
			return parseCTAB(bytecode[body+4 : end])
		}
		off = end
	}
	return nil, ErrNoConstantTable
}

func parseCTAB(data []byte) (*ConstantTable, error) {
	if len(data) < ctabHeaderSize {
		return nil, fmt.Errorf("%w: header truncated", ErrMalformedConstantTable)
	}
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }
	u16 := func(off int) uint16 { return binary.LittleEndian.Uint16(data[off:]) }

	if size := u32(0); size != ctabHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrMalformedConstantTable, size)
	}
	creator, err := cstring(data, u32(4))
	if err != nil {
		return nil, err
	}
	count := int(u32(12))
	infoOff := int(u32(16))
	target, err := cstring(data, u32(24))
	if err != nil {
		return nil, err
	}
	if infoOff < 0 || count < 0 || infoOff+count*ctabInfoSize > len(data) {
		return nil, fmt.Errorf("%w: %d constants at %d", ErrMalformedConstantTable, count, infoOff)
	}

	t := &ConstantTable{Target: target, Creator: creator, Constants: make([]Constant, 0, count)}
	for i := 0; i < count; i++ {
		o := infoOff + i*ctabInfoSize
		name, err := cstring(data, u32(o))
		if err != nil {
			return nil, err
		}
		t.Constants = append(t.Constants, Constant{
			Name:  name,
			Set:   RegisterSet(u16(o + 4)),
			Index: u16(o + 6),
			Count: u16(o + 8),
		})
	}
	return t, nil
}

func cstring(data []byte, off uint32) (string, error) {
	if off == 0 {
		return "", nil
	}
	if int(off) >= len(data) {
		return "", fmt.Errorf("%w: string offset %d", ErrMalformedConstantTable, off)
	}
	for i := int(off); i < len(data); i++ {
		if data[i] == 0 {
			return string(data[off:i]), nil
		}
	}
	return "", fmt.Errorf("%w: unterminated string at %d", ErrMalformedConstantTable, off)
}
