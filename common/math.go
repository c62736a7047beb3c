package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// PutFloats writes vs little-endian into buf starting at offset and returns the offset past the last value.
func PutFloats(buf []byte, offset int, vs ...float32) int {
	for _, v := range vs {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
		offset += 4
	}
	return offset
}

// PutMat4 writes a column-major 4x4 matrix into buf at offset and returns the offset past it.
func PutMat4(buf []byte, offset int, m mgl32.Mat4) int {
	return PutFloats(buf, offset, m[:]...)
}

// NormalMatrix returns the inverse transpose of the model matrix, used to transform normals.
// A singular model matrix yields the identity.
func NormalMatrix(model mgl32.Mat4) mgl32.Mat4 {
	if model.Det() == 0 {
		return mgl32.Ident4()
	}
	return model.Inv().Transpose()
}

// TranslationOf extracts the translation column of an affine transform.
func TranslationOf(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}
