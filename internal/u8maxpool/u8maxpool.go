// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

// Package u8maxpool provides the micro-kernels that reduce quantized uint8
// pooling windows to their per-channel maxima.
//
// The kernels consume an indirection buffer: a flat array of input element
// offsets laid out so that every output pixel's window is a contiguous run of
// slots. They never compute geometry themselves; the operator's setup pass
// has already resolved padding, stride, and dilation into the offsets.
package u8maxpool

import "github.com/xzngycw/QNNPACK/internal/qparams"

// Kernel reduces outputPixels pooling windows of poolingSize input pixels
// each to one output pixel of channels uint8 values.
//
// The window of output pixel i is the poolingSize contiguous slots starting
// at indirection[i*indirectionStride]. Each slot holds the element offset of
// a source pixel's first channel inside input. The kernel writes channels
// values per output pixel, outputStride elements apart, saturating every
// value to the clamping range.
//
// Kernels may read up to MR-1 indirection slots past the last window, so
// buffer builders append that much slack.
type Kernel func(outputPixels, poolingSize, channels int,
	indirection []int, indirectionStride int,
	input, output []uint8, outputStride int,
	clamp qparams.U8Clamping)

// Config carries the selected kernels and their fixed unroll geometry.
type Config struct {
	// LtKR handles channel counts below KR; GeKR handles the rest.
	LtKR Kernel
	GeKR Kernel

	// MR is the number of window elements the first pass of GeKR consumes.
	// It is also the kernel's read-ahead width on the indirection buffer.
	MR int
	// QR is the number of window elements each remainder pass consumes.
	QR int
	// KR is the channel block width of GeKR.
	KR int
}

func makeConfig(mr, qr, kr int) Config {
	return Config{
		LtKR: subKRKernel,
		GeKR: geKRKernel(mr, qr, kr),
		MR:   mr,
		QR:   qr,
		KR:   kr,
	}
}

// geKRKernel builds the kernel for channel counts of at least kr. It keeps
// the loop shape of the vector kernels it stands in for: channels are walked
// in kr-wide blocks, the window in one mr-wide pass followed by qr-wide
// remainder passes over running maxima.
func geKRKernel(mr, qr, kr int) Kernel {
	return func(outputPixels, poolingSize, channels int,
		indirection []int, indirectionStride int,
		input, output []uint8, outputStride int,
		clamp qparams.U8Clamping) {
		for i := 0; i < outputPixels; i++ {
			window := indirection[i*indirectionStride:][:poolingSize]
			out := output[i*outputStride:][:channels]
			for blockStart := 0; blockStart < channels; blockStart += kr {
				blockEnd := min(blockStart+kr, channels)

				// First pass seeds the running maxima from up to mr window
				// elements.
				firstPass := min(mr, poolingSize)
				for c := blockStart; c < blockEnd; c++ {
					m := input[window[0]+c]
					for k := 1; k < firstPass; k++ {
						m = max(m, input[window[k]+c])
					}
					out[c] = m
				}

				// Remainder passes fold in qr window elements at a time.
				for k := firstPass; k < poolingSize; k += qr {
					passEnd := min(k+qr, poolingSize)
					for c := blockStart; c < blockEnd; c++ {
						m := out[c]
						for kk := k; kk < passEnd; kk++ {
							m = max(m, input[window[kk]+c])
						}
						out[c] = m
					}
				}

				for c := blockStart; c < blockEnd; c++ {
					out[c] = clamp.Apply(out[c])
				}
			}
		}
	}
}

// subKRKernel handles channel counts too narrow for block processing.
func subKRKernel(outputPixels, poolingSize, channels int,
	indirection []int, indirectionStride int,
	input, output []uint8, outputStride int,
	clamp qparams.U8Clamping) {
	for i := 0; i < outputPixels; i++ {
		window := indirection[i*indirectionStride:][:poolingSize]
		out := output[i*outputStride:][:channels]
		for c := 0; c < channels; c++ {
			m := input[window[0]+c]
			for k := 1; k < poolingSize; k++ {
				m = max(m, input[window[k]+c])
			}
			out[c] = clamp.Apply(m)
		}
	}
}
