// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package config parses the cipher core device table.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pion/logging"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v2"

	"github.com/usbarmory/hdcp1x-cipher/assets"
	"github.com/usbarmory/hdcp1x-cipher/internal/cipher"
	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
)

// Role is the YAML representation of cipher.Role.
type Role cipher.Role

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Role) UnmarshalYAML(unmarshal func(interface{}) error) (err error) {
	var s string

	if err = unmarshal(&s); err != nil {
		return
	}

	switch strings.ToLower(s) {
	case "tx", "transmitter":
		*r = Role(cipher.Transmitter)
	case "rx", "receiver":
		*r = Role(cipher.Receiver)
	default:
		return fmt.Errorf("invalid role %q", s)
	}

	return
}

func (r Role) String() string {
	return cipher.Role(r).String()
}

// Protocol is the YAML representation of cipher.Protocol.
type Protocol cipher.Protocol

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Protocol) UnmarshalYAML(unmarshal func(interface{}) error) (err error) {
	var s string

	if err = unmarshal(&s); err != nil {
		return
	}

	switch strings.ToLower(s) {
	case "hdmi":
		*p = Protocol(cipher.HDMI)
	case "dp", "displayport":
		*p = Protocol(cipher.DisplayPort)
	default:
		return fmt.Errorf("invalid protocol %q", s)
	}

	return
}

func (p Protocol) String() string {
	return cipher.Protocol(p).String()
}

// Device represents a cipher core instance.
type Device struct {
	Name       string   `yaml:"name"`
	ID         uint16   `yaml:"id"`
	Base       uint64   `yaml:"base"`
	Role       Role     `yaml:"role"`
	Protocol   Protocol `yaml:"protocol"`
	Lanes      int      `yaml:"lanes"`
	KeySelect  int      `yaml:"key_select"`
	MinVersion string   `yaml:"min_version"`
	AckBudget  int      `yaml:"ack_budget"`
}

// File represents a device table.
type File struct {
	Devices []*Device `yaml:"devices"`
}

// Load reads and validates the device table at path, an empty path selects
// the embedded default table.
func Load(path string) (*File, error) {
	if len(path) == 0 {
		return Parse(assets.DefaultDevices)
	}

	buf, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	f, err := Parse(buf)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return f, nil
}

// Parse decodes and validates a YAML device table.
func Parse(buf []byte) (f *File, err error) {
	f = &File{}

	if err = yaml.UnmarshalStrict(buf, f); err != nil {
		return nil, err
	}

	if len(f.Devices) == 0 {
		return nil, errors.New("no devices defined")
	}

	names := make(map[string]bool)

	for i, dev := range f.Devices {
		if dev == nil {
			return nil, fmt.Errorf("device %d: empty entry", i)
		}

		if err = dev.validate(); err != nil {
			return nil, fmt.Errorf("device %d (%s): %w", i, dev.Name, err)
		}

		if names[dev.Name] {
			return nil, fmt.Errorf("device %d: duplicate name %q", i, dev.Name)
		}

		names[dev.Name] = true
	}

	return
}

// Find returns the device with the given name, an empty name selects the
// first device.
func (f *File) Find(name string) (*Device, error) {
	if len(name) == 0 {
		return f.Devices[0], nil
	}

	for _, dev := range f.Devices {
		if dev.Name == name {
			return dev, nil
		}
	}

	return nil, fmt.Errorf("unknown device %q", name)
}

func (d *Device) validate() error {
	switch {
	case len(d.Name) == 0:
		return errors.New("missing name")
	case d.Base == 0 || d.Base%4 != 0:
		return fmt.Errorf("invalid base address %#x", d.Base)
	case d.KeySelect < 0 || d.KeySelect >= hw.KEY_SELECTS:
		return fmt.Errorf("invalid key select %d", d.KeySelect)
	case d.AckBudget < 0:
		return fmt.Errorf("invalid ack budget %d", d.AckBudget)
	case len(d.MinVersion) > 0 && !semver.IsValid(d.MinVersion):
		return fmt.Errorf("invalid minimum version %q", d.MinVersion)
	}

	if d.Lanes == 0 {
		return nil
	}

	switch cipher.Protocol(d.Protocol) {
	case cipher.HDMI:
		if d.Lanes != 1 {
			return fmt.Errorf("invalid lane count %d for HDMI", d.Lanes)
		}
	default:
		if d.Lanes < 0 || d.Lanes > hw.MAX_LANES || d.Lanes == 3 {
			return fmt.Errorf("invalid lane count %d for DisplayPort", d.Lanes)
		}
	}

	return nil
}

// CipherConfig returns the driver configuration for the device, an unset
// ack budget selects the driver default.
func (d *Device) CipherConfig(factory logging.LoggerFactory) *cipher.Config {
	return &cipher.Config{
		DeviceID:      d.ID,
		BaseAddress:   uintptr(d.Base),
		Role:          cipher.Role(d.Role),
		Protocol:      cipher.Protocol(d.Protocol),
		AckBudget:     d.AckBudget,
		LoggerFactory: factory,
	}
}
