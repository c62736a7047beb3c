package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWidenIndices(t *testing.T) {
	out, format := WidenIndices([]byte{0, 1, 255}, IndexFormatUint8)
	assert.Equal(t, IndexFormatUint16, format)
	assert.Equal(t, []byte{0, 0, 1, 0, 255, 0}, out)
	assert.Equal(t, 3, IndexCount(out, format))
}

func TestWidenIndicesPassThrough(t *testing.T) {
	in := []byte{1, 0, 2, 0}
	out, format := WidenIndices(in, IndexFormatUint16)
	assert.Equal(t, IndexFormatUint16, format)
	assert.Equal(t, in, out)
	assert.Equal(t, 0, IndexCount(in, IndexFormatNone))
}
