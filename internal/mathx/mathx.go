// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

// Package mathx provides the small arithmetic helpers used for boundary
// handling in operator geometry.
package mathx

import "golang.org/x/exp/constraints"

// SaturatingSub returns a-b, flooring at zero instead of going negative.
func SaturatingSub[T constraints.Integer](a, b T) T {
	if a < b {
		return 0
	}
	return a - b
}

// ClampHigh caps v at hi.
func ClampHigh[T constraints.Ordered](v, hi T) T {
	if v > hi {
		return hi
	}
	return v
}
