// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package assets

import (
	_ "embed"
)

// DefaultDevices represents the default cipher core device table (YAML).
//
//go:embed devices.yaml
var DefaultDevices []byte
