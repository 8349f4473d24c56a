// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

// Package qnnpack implements quantized (uint8) neural-network operators over
// channel-last tensors, built for repeated low-latency inference calls.
//
// Operators are created once with immutable geometry and then bound to a
// concrete batch with Setup before every change of input shape; Setup
// amortizes the construction of its internal indirection buffer across calls
// with unchanged input geometry, so steady-state inference pays only for the
// reduction itself.
//
// Initialize must be called before creating any operator.
package qnnpack

import (
	"sync"
	"sync/atomic"

	"k8s.io/klog/v2"

	"github.com/xzngycw/QNNPACK/internal/u8maxpool"
)

// runtimeParams holds the micro-kernel configurations selected for the
// running CPU. It is written once by Initialize and read-only afterwards.
type runtimeParams struct {
	u8maxpool u8maxpool.Config
}

var (
	initOnce    sync.Once
	initialized atomic.Bool
	params      runtimeParams
)

// Initialize detects CPU capabilities and selects the micro-kernels.
// It must complete before any operator is created; additional calls are
// no-ops. It is safe to call from multiple goroutines.
func Initialize() {
	initOnce.Do(func() {
		params.u8maxpool = u8maxpool.Select()
		initialized.Store(true)
		klog.V(1).Infof("qnnpack: initialized, u8maxpool kernel mr=%d qr=%d kr=%d",
			params.u8maxpool.MR, params.u8maxpool.QR, params.u8maxpool.KR)
	})
}

// IsInitialized reports whether Initialize has completed.
func IsInitialized() bool {
	return initialized.Load()
}
