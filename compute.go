// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

package qnnpack

import (
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Compute runs the max-pooling reduction described by the last successful
// Setup call, writing one output pixel per pooling window.
//
// Work is partitioned across (image, output row) pairs and dispatched on the
// thread pool handed to Setup; a nil pool computes inline. The indirection
// buffer is only read here, so distinct operators may compute concurrently,
// but a new Setup call must not overlap an in-flight Compute on the same
// operator.
func (op *MaxPooling2D) Compute() error {
	if !IsInitialized() {
		klog.Errorf("MaxPooling2D.Compute failed because qnnpack is not properly initialized")
		return errors.WithMessage(ErrUninitialized, "MaxPooling2D.Compute")
	}
	if op.validBatchSize == 0 || op.indirection == nil {
		klog.Errorf("MaxPooling2D.Compute called without a successful Setup")
		return errors.Wrap(ErrInvalidParameter, "Compute without Setup")
	}

	poolingHeight := op.opts.PoolingHeight
	poolingSize := poolingHeight * op.opts.PoolingWidth
	widthStep := op.widthStep()
	rowSlots := poolingSize + (op.outputWidth*widthStep-1)*poolingHeight
	indirectionStride := widthStep * poolingHeight

	kernel := op.kernels.GeKR
	if op.opts.Channels < op.kernels.KR {
		kernel = op.kernels.LtKR
	}

	runRow := func(row int) {
		kernel(op.outputWidth, poolingSize, op.opts.Channels,
			op.indirection[row*rowSlots:], indirectionStride,
			op.input, op.output[row*op.outputWidth*op.outputPixelStride:], op.outputPixelStride,
			op.clamping)
	}

	rows := op.batchSize * op.outputHeight
	pool := op.pool
	if !pool.IsEnabled() || rows == 1 {
		for row := 0; row < rows; row++ {
			runRow(row)
		}
		return nil
	}

	// Split the rows evenly across the pool's workers.
	rowsPerTask := 1
	if !pool.IsUnlimited() {
		rowsPerTask = (rows + pool.MaxParallelism() - 1) / pool.MaxParallelism()
	}
	var wg sync.WaitGroup
	for start := 0; start < rows; start += rowsPerTask {
		end := min(start+rowsPerTask, rows)
		wg.Add(1)
		pool.WaitToStart(func() {
			defer wg.Done()
			for row := start; row < end; row++ {
				runRow(row)
			}
		})
	}
	wg.Wait()
	return nil
}
