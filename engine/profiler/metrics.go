package profiler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors of the frame loop and descriptor caches.
type Metrics struct {
	FramesPresented      prometheus.Counter
	SwapchainRecreations prometheus.Counter
	SwapchainStale       prometheus.Counter
	FenceWait            prometheus.Histogram
	CacheHits            prometheus.Counter
	CacheMisses          prometheus.Counter
	DeferredReleases     prometheus.Counter
}

// NewMetrics registers the collectors on reg. A nil reg creates unregistered collectors.
//
// Parameters:
//   - reg: the registerer, usually prometheus.DefaultRegisterer or a test registry
//
// Returns:
//   - *Metrics: the registered collectors
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesPresented: f.NewCounter(prometheus.CounterOpts{
			Name: "oxy_frames_presented_total",
			Help: "Number of frames handed to the presentation engine",
		}),
		SwapchainRecreations: f.NewCounter(prometheus.CounterOpts{
			Name: "oxy_swapchain_recreations_total",
			Help: "Number of swapchain rebuilds",
		}),
		SwapchainStale: f.NewCounter(prometheus.CounterOpts{
			Name: "oxy_swapchain_stale_total",
			Help: "Number of acquire or present calls that reported a stale swapchain",
		}),
		FenceWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "oxy_fence_wait_seconds",
			Help:    "Time spent waiting for a frame slot fence",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "oxy_descriptor_cache_hits_total",
			Help: "Number of descriptor cache lookups served from the cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "oxy_descriptor_cache_misses_total",
			Help: "Number of descriptor cache lookups that built a binding",
		}),
		DeferredReleases: f.NewCounter(prometheus.CounterOpts{
			Name: "oxy_deferred_releases_total",
			Help: "Number of objects released after every frame slot signaled",
		}),
	}
}
