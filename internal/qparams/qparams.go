// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

// Package qparams holds the quantization parameter blocks consumed by the
// reduction micro-kernels. The blocks are opaque to the operators that carry
// them: they are derived once at operator creation and handed to the kernels
// unchanged.
package qparams

// U8Clamping saturates re-quantized uint8 outputs to [Min, Max].
type U8Clamping struct {
	Min uint8
	Max uint8
}

// ComputeU8Clamping derives the clamping block the u8 max-pooling kernels
// apply from the operator's output bounds.
func ComputeU8Clamping(outputMin, outputMax uint8) U8Clamping {
	return U8Clamping{Min: outputMin, Max: outputMax}
}

// Apply saturates v to the clamping range.
func (c U8Clamping) Apply(v uint8) uint8 {
	if v > c.Max {
		return c.Max
	}
	if v < c.Min {
		return c.Min
	}
	return v
}
