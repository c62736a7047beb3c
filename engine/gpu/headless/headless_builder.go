package headless

import "time"

// HeadlessBuilderOption is a functional option used to configure a Device during construction.
type HeadlessBuilderOption func(*Device)

// WithImageCount sets the number of swapchain images. Values below 1 are ignored.
func WithImageCount(n int) HeadlessBuilderOption {
	return func(d *Device) {
		if n > 0 {
			d.imageCount = n
		}
	}
}

// WithSize sets the size reported before the first ConfigureSurface.
func WithSize(width, height int) HeadlessBuilderOption {
	return func(d *Device) {
		d.width, d.height = width, height
	}
}

// WithLatency delays the completion of every submission by latency.
func WithLatency(latency time.Duration) HeadlessBuilderOption {
	return func(d *Device) {
		d.latency = latency
	}
}

// WithHang makes the queue accept submissions and never complete them.
func WithHang() HeadlessBuilderOption {
	return func(d *Device) {
		d.hang = true
	}
}
