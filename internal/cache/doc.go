// Package cache provides a bounded LRU cache for native GPU state objects.
//
// Backends create blend, rasterizer and depth-stencil states or whole
// render pipelines per distinct render state. Cache keeps the most recently
// used ones and hands evicted values to a callback that releases them.
//
//	pipelines := cache.New[pipelineKey, hal.RenderPipeline](64, func(_ pipelineKey, p hal.RenderPipeline) {
//		device.DestroyRenderPipeline(p)
//	})
//	p, err := pipelines.GetOrCreate(key, func() (hal.RenderPipeline, error) {
//		return device.CreateRenderPipeline(desc)
//	})
//
// # Thread Safety
//
// Cache is not safe for concurrent use. It lives on the render thread
// together with the device that owns the cached objects.
package cache
