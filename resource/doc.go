// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package resource provides texture.ResourceProvider implementations.
//
// MemoryProvider tracks allocations without a GPU and is what tests and the
// demo use. WGPUProvider allocates real textures on a device handed over by
// the host application through gpucontext.DeviceProvider. The ebitenres
// subpackage backs textures with offscreen Ebitengine images.
package resource
