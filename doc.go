// Package compositor is the GPU memory side of a layer compositor.
//
// # Overview
//
// A compositor keeps layer content in GPU textures. There is never enough
// memory for every tile of every layer, so each frame decides which
// textures stay resident: the ones on screen first, then the ones nearest
// to it, then content that was visible recently.
//
// The work is split across sub-packages:
//
//   - priority: the ordering of texture request priorities
//   - texture: the prioritized texture Manager and its backings
//   - resource: ResourceProvider implementations (wgpu, in-memory)
//   - resource/ebitenres: a ResourceProvider on Ebitengine images
//   - proptree: transform and clip property trees
//   - metrics: per-frame overdraw accounting
//   - layer: a tiled layer tree driving all of the above
//
// This package holds the shared 2D geometry (Matrix, Rect, Point) and the
// logger.
//
// # Frame Lifecycle
//
//	m := texture.NewManager(texture.DefaultConfig())
//	tree := layer.NewTree(m, layer.Config{Viewport: image.Rect(0, 0, 800, 600)})
//	tree.NewLayer(nil, image.Pt(800, 4000))
//
//	for {
//	    stats, err := tree.Frame(rp)
//	    ...
//	}
//
// Frame runs the Manager's four phases: ClearPriorities, PrioritizeTextures,
// ReduceMemory and AcquireBackingTextureIfNeeded for every tile.
//
// # Logging
//
// Nothing is logged by default. See SetLogger.
package compositor
