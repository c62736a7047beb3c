package gpu

import "encoding/binary"

// WidenIndices converts 8-bit indices to little-endian 16-bit indices for devices without
// native 8-bit index support. Other formats are returned unchanged.
func WidenIndices(data []byte, format IndexFormat) ([]byte, IndexFormat) {
	if format != IndexFormatUint8 {
		return data, format
	}
	out := make([]byte, len(data)*2)
	for i, idx := range data {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(idx))
	}
	return out, IndexFormatUint16
}

// IndexCount returns how many indices of format fit in data.
func IndexCount(data []byte, format IndexFormat) int {
	if size := format.Size(); size > 0 {
		return len(data) / size
	}
	return 0
}
