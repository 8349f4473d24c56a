// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

//go:build amd64

package u8maxpool

import "golang.org/x/sys/cpu"

// Select returns the kernel configuration for the running CPU.
//
// The 9p8q window shape matches the register budget of 128-bit kernels:
// 9 window loads seed the maxima, 8 more fold in per remainder pass. SSE2 is
// architecturally guaranteed on amd64, giving 16 uint8 lanes per channel
// block; AVX2 doubles the block width.
func Select() Config {
	kr := 16
	if cpu.X86.HasAVX2 {
		kr = 32
	}
	return makeConfig(9, 8, kr)
}
