// package common contains plain data types and helpers shared by every engine package. They are not interface-wrapped,
// they only express commonly used data.
package common

import "fmt"

// AddressMode controls how texture coordinates outside [0, 1] are resolved.
type AddressMode int

const (
	AddressModeRepeat AddressMode = iota
	AddressModeClampToEdge
	AddressModeMirrorRepeat
)

// FilterMode controls texel filtering for magnification, minification and mip selection.
type FilterMode int

const (
	FilterModeLinear FilterMode = iota
	FilterModeNearest
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is tightly packed RGBA8 data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Validate reports whether the pixel slice matches the declared dimensions.
//
// Returns:
//   - error: nil if the staging data can be uploaded as-is
func (t TextureStagingData) Validate() error {
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("texture has zero size %dx%d", t.Width, t.Height)
	}
	if want := int(t.Width) * int(t.Height) * 4; len(t.Pixels) != want {
		return fmt.Errorf("texture %dx%d needs %d bytes, got %d", t.Width, t.Height, want, len(t.Pixels))
	}
	return nil
}

// SolidTexture returns a 1x1 texture of a single RGBA color.
// Used as the stand-in image for materials without a texture.
func SolidTexture(r, g, b, a uint8) TextureStagingData {
	return TextureStagingData{Pixels: []byte{r, g, b, a}, Width: 1, Height: 1}
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode per texture axis.
	AddressModeU, AddressModeV, AddressModeW AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter FilterMode
	// LodMinClamp and LodMaxClamp bound the level of detail used for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy is the anisotropic filtering level; 0 and 1 both disable it.
	MaxAnisotropy uint16
}

// DefaultSampler returns a linear, repeating sampler configuration.
func DefaultSampler() SamplerStagingData {
	return SamplerStagingData{
		MagFilter:     FilterModeLinear,
		MinFilter:     FilterModeLinear,
		MipmapFilter:  FilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// NearestClampSampler returns a point-sampling, edge-clamped configuration, used to read frame attachments.
func NearestClampSampler() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  AddressModeClampToEdge,
		AddressModeV:  AddressModeClampToEdge,
		AddressModeW:  AddressModeClampToEdge,
		MagFilter:     FilterModeNearest,
		MinFilter:     FilterModeNearest,
		MipmapFilter:  FilterModeNearest,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	}
}
