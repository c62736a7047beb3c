package gpu

import "errors"

var (
	// ErrSwapchainStale reports that the presentable images no longer match the surface.
	// It is recoverable: the swapchain and every image-indexed resource must be rebuilt.
	ErrSwapchainStale = errors.New("swapchain is stale")

	// ErrWaitTimeout reports that a fence or idle wait did not complete. It is fatal.
	ErrWaitTimeout = errors.New("gpu wait timed out")

	// ErrDeviceLost reports that the device can no longer execute work. It is fatal.
	ErrDeviceLost = errors.New("gpu device lost")

	// ErrResourceCreation reports that the device rejected a resource. It is fatal.
	ErrResourceCreation = errors.New("gpu resource creation failed")

	// ErrUnsupported reports a request the backend cannot express.
	ErrUnsupported = errors.New("unsupported by gpu backend")
)
