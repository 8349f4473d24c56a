// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

package qnnpack

import "github.com/pkg/errors"

// Operator entry points return nil on success or one of the sentinel errors
// below, wrapped with call context. Discriminate with errors.Is.
var (
	// ErrUninitialized is returned when an entry point runs before
	// Initialize has completed. Not retryable until Initialize is called.
	ErrUninitialized = errors.New("qnnpack is not initialized")

	// ErrInvalidParameter is returned for geometrically meaningless or
	// zero-sized arguments. Retrying with the same arguments cannot succeed.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrOutOfMemory is returned when an internal buffer cannot be sized for
	// the request. The operator's previous state is left intact, so the call
	// may be retried.
	ErrOutOfMemory = errors.New("out of memory")
)
