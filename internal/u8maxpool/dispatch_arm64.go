// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

//go:build arm64

package u8maxpool

import "golang.org/x/sys/cpu"

// Select returns the kernel configuration for the running CPU.
// NEON gives 16 uint8 lanes per channel block.
func Select() Config {
	if cpu.ARM64.HasASIMD {
		return makeConfig(9, 8, 16)
	}
	return makeConfig(9, 8, 8)
}
