// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package wgpu provides the GPU drawing device built on the gogpu/wgpu HAL.
//
// Textures are RGBA8Unorm images, programs are WGSL modules validated with
// naga, and every batch is one render pass with one indexed draw. A render
// pipeline is created per (program, blend state) pair and cached on the
// program.
//
// The device either opens its own Vulkan adapter in Init or wraps a HAL
// device and queue owned by the host application (see NewWithHAL).
//
// Build with -tags nogpu to exclude this package.
package wgpu
