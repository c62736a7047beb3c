package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	spirvMagic        = 0x07230203
	spirvHeaderWords  = 5
	opEntryPoint      = 15
	execModelVertex   = 0
	execModelFragment = 4
)

// ErrNotSPIRV is returned by EntryPoints when code does not start with the SPIR-V magic number.
var ErrNotSPIRV = errors.New("not a SPIR-V module")

// EntryPoints lists the vertex and fragment entry point names declared by a SPIR-V module.
// A module compiled from a WGSL source keeps the WGSL function names, a GLSL module exports "main".
//
// Parameters:
//   - code: the little-endian SPIR-V binary
//
// Returns:
//   - map[ShaderType]string: the first entry point per stage
//   - error: ErrNotSPIRV or a truncation error
func EntryPoints(code []byte) (map[ShaderType]string, error) {
	if len(code)%4 != 0 || len(code) < spirvHeaderWords*4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotSPIRV, len(code))
	}
	if binary.LittleEndian.Uint32(code) != spirvMagic {
		return nil, ErrNotSPIRV
	}

	out := make(map[ShaderType]string)
	words := len(code) / 4
	word := func(i int) uint32 { return binary.LittleEndian.Uint32(code[i*4:]) }

	for i := spirvHeaderWords; i < words; {
		count := int(word(i) >> 16)
		opcode := word(i) & 0xffff
		if count == 0 || i+count > words {
			return nil, fmt.Errorf("truncated instruction at word %d", i)
		}
		// OpEntryPoint: model, function id, name, interface ids
		if opcode == opEntryPoint && count >= 4 {
			var t ShaderType
			known := true
			switch word(i + 1) {
			case execModelVertex:
				t = ShaderTypeVertex
			case execModelFragment:
				t = ShaderTypeFragment
			default:
				known = false
			}
			if _, seen := out[t]; known && !seen {
				out[t] = literalString(code[(i+3)*4 : (i+count)*4])
			}
		}
		i += count
	}
	return out, nil
}

// literalString decodes a nul-terminated SPIR-V literal.
func literalString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
