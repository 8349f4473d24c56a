// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

package qnnpack

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/xzngycw/QNNPACK/internal/qparams"
	"github.com/xzngycw/QNNPACK/internal/u8maxpool"
	"github.com/xzngycw/QNNPACK/threadpool"
)

// MaxPooling2DOptions fixes the geometry of a max-pooling operator.
// All fields are immutable after NewMaxPooling2D.
type MaxPooling2DOptions struct {
	// Implicit input padding, in pixels. Padded positions are resolved by
	// clamping to the nearest edge pixel rather than by reading a
	// zero-filled region: for a max reduction the edge value stands in for
	// the padded area, there is no implicit minus-infinity padding value.
	InputPaddingTop    int
	InputPaddingRight  int
	InputPaddingBottom int
	InputPaddingLeft   int

	// Pooling window extent. A 1x1 window is rejected as meaningless.
	PoolingHeight int
	PoolingWidth  int

	// Window displacement between adjacent output pixels. Must be >= 1.
	StrideHeight int
	StrideWidth  int

	// Spacing between consecutive window samples. Must be >= 1; 1 means a
	// dense window.
	DilationHeight int
	DilationWidth  int

	// Channels per pixel (channel-last layout). Must be >= 1.
	Channels int

	// Output saturation bounds. Use 0 and 255 for the full uint8 range.
	OutputMin uint8
	OutputMax uint8
}

// MaxPooling2D computes windowed per-channel maxima over quantized
// channel-last tensors.
//
// Lifecycle: NewMaxPooling2D validates and freezes the geometry, Setup binds
// the operator to one batch of input and output and (re)builds the internal
// indirection buffer, Compute runs the reduction. Setup and Compute must not
// run concurrently with each other on the same operator; distinct operators
// are fully independent.
type MaxPooling2D struct {
	opts     MaxPooling2DOptions
	clamping qparams.U8Clamping
	kernels  u8maxpool.Config

	// Invocation shape, rebound by every successful Setup call.
	batchSize         int
	inputHeight       int
	inputWidth        int
	input             []uint8
	inputPixelStride  int
	output            []uint8
	outputPixelStride int
	outputHeight      int
	outputWidth       int
	pool              *threadpool.Pool

	// indirection maps (image, output row, output column, window position)
	// to the element offset of the source pixel inside input. It only ever
	// grows; see Setup.
	indirection []int

	// Cache fields: the buffer holds valid entries for up to validBatchSize
	// images as long as the input binding (base, height, width) below is
	// unchanged.
	lastInput       *uint8
	lastInputHeight int
	lastInputWidth  int
	validBatchSize  int
}

// NewMaxPooling2D validates the geometry and creates the operator.
//
// It returns ErrUninitialized before Initialize has run and
// ErrInvalidParameter for a meaningless geometry: an empty or 1x1 window,
// zero strides or dilations, zero channels, negative padding, or inverted
// output bounds.
func NewMaxPooling2D(opts MaxPooling2DOptions) (*MaxPooling2D, error) {
	if !IsInitialized() {
		klog.Errorf("NewMaxPooling2D failed because qnnpack is not properly initialized")
		return nil, errors.WithMessage(ErrUninitialized, "NewMaxPooling2D")
	}

	if opts.PoolingHeight <= 0 || opts.PoolingWidth <= 0 {
		klog.Errorf("failed to create max pooling with %dx%d pooling size: pooling size dimensions must be non-zero",
			opts.PoolingWidth, opts.PoolingHeight)
		return nil, errors.Wrapf(ErrInvalidParameter, "%dx%d pooling size", opts.PoolingWidth, opts.PoolingHeight)
	}
	if opts.PoolingHeight*opts.PoolingWidth == 1 {
		klog.Errorf("failed to create max pooling with 1 pooling element: 1x1 pooling is meaningless")
		return nil, errors.Wrap(ErrInvalidParameter, "1x1 pooling is meaningless")
	}
	if opts.StrideHeight <= 0 || opts.StrideWidth <= 0 {
		klog.Errorf("failed to create max pooling with %dx%d stride: stride dimensions must be non-zero",
			opts.StrideWidth, opts.StrideHeight)
		return nil, errors.Wrapf(ErrInvalidParameter, "%dx%d stride", opts.StrideWidth, opts.StrideHeight)
	}
	if opts.DilationHeight <= 0 || opts.DilationWidth <= 0 {
		klog.Errorf("failed to create max pooling with %dx%d dilation: dilation dimensions must be non-zero",
			opts.DilationWidth, opts.DilationHeight)
		return nil, errors.Wrapf(ErrInvalidParameter, "%dx%d dilation", opts.DilationWidth, opts.DilationHeight)
	}
	if opts.Channels <= 0 {
		klog.Errorf("failed to create max pooling with %d channels: number of channels must be non-zero",
			opts.Channels)
		return nil, errors.Wrapf(ErrInvalidParameter, "%d channels", opts.Channels)
	}
	if opts.InputPaddingTop < 0 || opts.InputPaddingRight < 0 || opts.InputPaddingBottom < 0 || opts.InputPaddingLeft < 0 {
		klog.Errorf("failed to create max pooling with [%d, %d, %d, %d] padding: padding must not be negative",
			opts.InputPaddingTop, opts.InputPaddingRight, opts.InputPaddingBottom, opts.InputPaddingLeft)
		return nil, errors.Wrap(ErrInvalidParameter, "negative padding")
	}
	if opts.OutputMin > opts.OutputMax {
		klog.Errorf("failed to create max pooling with [%d, %d] output range: range min must not exceed max",
			opts.OutputMin, opts.OutputMax)
		return nil, errors.Wrapf(ErrInvalidParameter, "[%d, %d] output range", opts.OutputMin, opts.OutputMax)
	}

	return &MaxPooling2D{
		opts:     opts,
		clamping: qparams.ComputeU8Clamping(opts.OutputMin, opts.OutputMax),
		kernels:  params.u8maxpool,
	}, nil
}

// Options returns a copy of the geometry the operator was created with.
func (op *MaxPooling2D) Options() MaxPooling2DOptions {
	return op.opts
}

// OutputHeight returns the output height derived by the last Setup call.
func (op *MaxPooling2D) OutputHeight() int {
	return op.outputHeight
}

// OutputWidth returns the output width derived by the last Setup call.
func (op *MaxPooling2D) OutputWidth() int {
	return op.outputWidth
}

// Finalize drops the indirection buffer and the tensor bindings. The
// operator must be set up again before the next Compute.
func (op *MaxPooling2D) Finalize() {
	op.indirection = nil
	op.input = nil
	op.output = nil
	op.pool = nil
	op.lastInput = nil
	op.lastInputHeight = 0
	op.lastInputWidth = 0
	op.validBatchSize = 0
}

// computeOutputDimension returns the output extent of one spatial axis.
// The effective window span accounts for dilation.
func computeOutputDimension(paddedInputDimension, poolingDimension, dilation, stride int) int {
	effectivePoolingDimension := (poolingDimension-1)*dilation + 1
	return (paddedInputDimension-effectivePoolingDimension)/stride + 1
}

// widthStep is the slot distance between adjacent output columns' window
// data in the indirection buffer. Horizontal dilation forbids sharing slots;
// otherwise overlapping windows share them whenever the window slides by
// less than its own width.
func (op *MaxPooling2D) widthStep() int {
	if op.opts.DilationWidth > 1 {
		return op.opts.PoolingWidth
	}
	return min(op.opts.StrideWidth, op.opts.PoolingWidth)
}
