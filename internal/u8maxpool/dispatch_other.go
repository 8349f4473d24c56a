// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

//go:build !amd64 && !arm64

package u8maxpool

// Select returns the scalar fallback configuration. The 9p8q loop shape is
// kept so the indirection buffer layout does not depend on the architecture.
func Select() Config {
	return makeConfig(9, 8, 8)
}
