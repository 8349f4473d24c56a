// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

package qnnpack

import (
	"math"
	"math/bits"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/xzngycw/QNNPACK/internal/mathx"
	"github.com/xzngycw/QNNPACK/threadpool"
)

// Setup binds the operator to one batch of input and output tensors, derives
// the output dimensions, and (re)builds the indirection buffer when needed.
//
// Tensors are channel-last: pixel (image, y, x) starts at element
// ((image*height+y)*width+x)*pixelStride and spans Channels elements. Both
// pixel strides must be at least Channels. pool is only used by Compute and
// may be nil to compute inline.
//
// Repeated calls with the same input base, height, and width reuse the
// buffer: it stays valid for the largest batch size seen under that binding,
// so a growing-batch call sequence rebuilds at most once per growth step and
// shrinking the batch never rebuilds. Any change of input base or spatial
// shape invalidates the cache and repopulates the buffer, which only ever
// grows; the memory is retained until Finalize.
//
// On failure nothing of the previously cached state is disturbed.
func (op *MaxPooling2D) Setup(batchSize, inputHeight, inputWidth int,
	input []uint8, inputPixelStride int,
	output []uint8, outputPixelStride int,
	pool *threadpool.Pool) error {
	if !IsInitialized() {
		klog.Errorf("MaxPooling2D.Setup failed because qnnpack is not properly initialized")
		return errors.WithMessage(ErrUninitialized, "MaxPooling2D.Setup")
	}

	if batchSize <= 0 {
		klog.Errorf("failed to setup max pooling with batch size %d: batch size must be non-zero", batchSize)
		return errors.Wrapf(ErrInvalidParameter, "batch size %d", batchSize)
	}
	if inputHeight <= 0 || inputWidth <= 0 {
		klog.Errorf("failed to setup max pooling with %dx%d input: input dimensions must be non-zero",
			inputWidth, inputHeight)
		return errors.Wrapf(ErrInvalidParameter, "%dx%d input", inputWidth, inputHeight)
	}

	paddedHeight := op.opts.InputPaddingTop + inputHeight + op.opts.InputPaddingBottom
	paddedWidth := op.opts.InputPaddingLeft + inputWidth + op.opts.InputPaddingRight
	effectiveHeight := (op.opts.PoolingHeight-1)*op.opts.DilationHeight + 1
	effectiveWidth := (op.opts.PoolingWidth-1)*op.opts.DilationWidth + 1
	if effectiveHeight > paddedHeight || effectiveWidth > paddedWidth {
		klog.Errorf("failed to setup max pooling with %dx%d input: padded input is smaller than the %dx%d effective pooling window",
			inputWidth, inputHeight, effectiveWidth, effectiveHeight)
		return errors.Wrapf(ErrInvalidParameter, "%dx%d input smaller than %dx%d effective window",
			inputWidth, inputHeight, effectiveWidth, effectiveHeight)
	}

	outputHeight := computeOutputDimension(paddedHeight,
		op.opts.PoolingHeight, op.opts.DilationHeight, op.opts.StrideHeight)
	outputWidth := computeOutputDimension(paddedWidth,
		op.opts.PoolingWidth, op.opts.DilationWidth, op.opts.StrideWidth)

	if inputPixelStride < op.opts.Channels || outputPixelStride < op.opts.Channels {
		klog.Errorf("failed to setup max pooling with pixel strides %d and %d: strides must cover the %d channels",
			inputPixelStride, outputPixelStride, op.opts.Channels)
		return errors.Wrapf(ErrInvalidParameter, "pixel strides %d, %d below %d channels",
			inputPixelStride, outputPixelStride, op.opts.Channels)
	}
	if minLen := (batchSize*inputHeight*inputWidth-1)*inputPixelStride + op.opts.Channels; len(input) < minLen {
		klog.Errorf("failed to setup max pooling with %d input elements: %dx%dx%d input with pixel stride %d requires at least %d",
			len(input), batchSize, inputHeight, inputWidth, inputPixelStride, minLen)
		return errors.Wrapf(ErrInvalidParameter, "input length %d, need %d", len(input), minLen)
	}
	if minLen := (batchSize*outputHeight*outputWidth-1)*outputPixelStride + op.opts.Channels; len(output) < minLen {
		klog.Errorf("failed to setup max pooling with %d output elements: %dx%dx%d output with pixel stride %d requires at least %d",
			len(output), batchSize, outputHeight, outputWidth, outputPixelStride, minLen)
		return errors.Wrapf(ErrInvalidParameter, "output length %d, need %d", len(output), minLen)
	}

	op.batchSize = batchSize
	op.inputHeight = inputHeight
	op.inputWidth = inputWidth
	op.input = input
	op.inputPixelStride = inputPixelStride
	op.output = output
	op.outputPixelStride = outputPixelStride
	op.outputHeight = outputHeight
	op.outputWidth = outputWidth
	op.pool = pool

	// Cache check: a buffer built for the same input binding stays valid for
	// up to validBatchSize images.
	validBatchSize := 0
	if &input[0] == op.lastInput && inputHeight == op.lastInputHeight && inputWidth == op.lastInputWidth {
		validBatchSize = op.validBatchSize
		if batchSize <= validBatchSize {
			return nil
		}
	}

	poolingHeight := op.opts.PoolingHeight
	poolingWidth := op.opts.PoolingWidth
	poolingSize := poolingHeight * poolingWidth
	widthStep := op.widthStep()

	// Per (image, output row): the first column's full window plus
	// widthStep-spaced slots for every following column. The kernels may
	// read up to MR-1 slots past the last window, hence the slack.
	rowSlots := poolingSize + (outputWidth*widthStep-1)*poolingHeight
	slack := op.kernels.MR - 1
	totalSlots, ok := checkedBufferSlots(batchSize, outputHeight, rowSlots, slack)
	if !ok {
		klog.Errorf("failed to size indirection buffer for %dx%d output rows of %d slots: size overflows",
			batchSize, outputHeight, rowSlots)
		return errors.Wrap(ErrOutOfMemory, "indirection buffer")
	}

	if cap(op.indirection) < totalSlots {
		klog.V(2).Infof("growing indirection buffer to %d slots (%s)",
			totalSlots, humanize.Bytes(uint64(totalSlots)*(bits.UintSize/8)))
		op.indirection = make([]int, totalSlots)
	} else {
		op.indirection = op.indirection[:totalSlots]
	}

	strideHeight, strideWidth := op.opts.StrideHeight, op.opts.StrideWidth
	dilationHeight, dilationWidth := op.opts.DilationHeight, op.opts.DilationWidth
	paddingTop, paddingLeft := op.opts.InputPaddingTop, op.opts.InputPaddingLeft
	for image := 0; image < batchSize; image++ {
		for outputY := 0; outputY < outputHeight; outputY++ {
			rowBase := (image*outputHeight + outputY) * rowSlots
			for poolingY := 0; poolingY < poolingHeight; poolingY++ {
				inputY := mathx.SaturatingSub(outputY*strideHeight+poolingY*dilationHeight, paddingTop)
				clampedY := mathx.ClampHigh(inputY, inputHeight-1)
				rowOffset := (image*inputHeight + clampedY) * inputWidth
				for outputX := 0; outputX < outputWidth; outputX++ {
					for poolingX := 0; poolingX < poolingWidth; poolingX++ {
						inputX := mathx.SaturatingSub(outputX*strideWidth+poolingX*dilationWidth, paddingLeft)
						clampedX := mathx.ClampHigh(inputX, inputWidth-1)
						slot := rowBase + (outputX*widthStep+poolingX)*poolingHeight + poolingY
						op.indirection[slot] = (rowOffset + clampedX) * inputPixelStride
					}
				}
			}
		}
	}
	// Slack slots must stay addressable for the kernels' read-ahead; point
	// them at the first pixel.
	for i := totalSlots - slack; i < totalSlots; i++ {
		op.indirection[i] = 0
	}

	op.lastInput = &input[0]
	op.lastInputHeight = inputHeight
	op.lastInputWidth = inputWidth
	op.validBatchSize = max(validBatchSize, batchSize)
	return nil
}

// checkedBufferSlots computes batchSize*outputHeight*rowSlots+slack,
// reporting overflow instead of wrapping.
func checkedBufferSlots(batchSize, outputHeight, rowSlots, slack int) (int, bool) {
	hi, rows := bits.Mul(uint(batchSize), uint(outputHeight))
	if hi != 0 {
		return 0, false
	}
	hi, lo := bits.Mul(rows, uint(rowSlots))
	if hi != 0 || lo > math.MaxInt-uint(slack) {
		return 0, false
	}
	return int(lo) + slack, true
}
