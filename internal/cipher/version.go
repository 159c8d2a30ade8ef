// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cipher

import (
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
)

// Version represents the raw core version register.
type Version uint32

func (v Version) Major() int {
	return int(hw.VERSION_MAJOR.Get(uint32(v)))
}

func (v Version) Minor() int {
	return int(hw.VERSION_MINOR.Get(uint32(v)))
}

func (v Version) Revision() int {
	return int(hw.VERSION_REVISION.Get(uint32(v)))
}

// String returns the version in semantic version form (e.g. v1.0.3).
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major(), v.Minor(), v.Revision())
}

// AtLeast reports whether the version is equal or greater than min, which
// must be a valid semantic version (e.g. "v1.0" or "v1.0.2").
func (v Version) AtLeast(min string) bool {
	if !semver.IsValid(min) {
		return false
	}

	return semver.Compare(v.String(), min) >= 0
}
