package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// BufferWrite describes a write into one of a provider's uniform buffers.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Apply performs the write on dev.
//
// Parameters:
//   - dev: the device owning the provider's buffers
//
// Returns:
//   - error: if the binding has no buffer or the device rejects the write
func (w BufferWrite) Apply(dev gpu.Device) error {
	buf := w.Provider.Buffer(w.Binding)
	if buf == nil {
		return fmt.Errorf("provider %q has no buffer at binding %d", w.Provider.Label(), w.Binding)
	}
	if err := dev.WriteBuffer(buf, w.Offset, w.Data); err != nil {
		return fmt.Errorf("write provider %q binding %d: %w", w.Provider.Label(), w.Binding, err)
	}
	return nil
}
