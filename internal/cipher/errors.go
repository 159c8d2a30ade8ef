// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cipher

import "errors"

// Cipher errors.
var (
	// ErrConfigurationMismatch is returned by Init when the configured role
	// or protocol differs from the one reported by the hardware, no
	// register is modified in this case.
	ErrConfigurationMismatch = errors.New("hdcp1x: configuration mismatch")

	// ErrNotEnabled is returned when an operation requires an enabled core.
	ErrNotEnabled = errors.New("hdcp1x: not enabled")

	// ErrAlreadyEnabled is returned by Enable on an enabled core.
	ErrAlreadyEnabled = errors.New("hdcp1x: already enabled")

	// ErrDeviceBusy is returned by DoRequest while a request is in progress.
	ErrDeviceBusy = errors.New("hdcp1x: request in progress")

	// ErrInvalidForRole is returned for per-stream operations on a receiver.
	ErrInvalidForRole = errors.New("hdcp1x: invalid for role")

	// ErrNoFeature is returned for features the core protocol lacks.
	ErrNoFeature = errors.New("hdcp1x: feature not available")

	// ErrTimeout is returned when the hardware does not acknowledge a
	// state change within the poll budget.
	ErrTimeout = errors.New("hdcp1x: timeout")
)
