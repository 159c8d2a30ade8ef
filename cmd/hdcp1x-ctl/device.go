// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log"

	"github.com/pion/logging"

	"github.com/usbarmory/hdcp1x-cipher/internal/cipher"
	"github.com/usbarmory/hdcp1x-cipher/internal/config"
	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
	"github.com/usbarmory/hdcp1x-cipher/internal/reg"
	"github.com/usbarmory/hdcp1x-cipher/internal/sim"
)

type device struct {
	cfg *config.Device
	x   *cipher.Exclusive

	bus reg.Bus
	mem io.Closer
}

func newBus(dev *config.Device) (reg.Bus, io.Closer, error) {
	if conf.sim {
		core := sim.New(sim.Config{
			Base:     uintptr(dev.Base),
			Receiver: cipher.Role(dev.Role) == cipher.Receiver,
			HDMI:     cipher.Protocol(dev.Protocol) == cipher.HDMI,
			Version:  simVersion,
			LocalKSV: simLocalKSV ^ uint64(dev.ID),
		})

		return core, nil, nil
	}

	m, err := reg.OpenDevMem(uintptr(dev.Base), hw.REG_SIZE)

	if err != nil {
		return nil, nil, err
	}

	return m, m, nil
}

// open attaches to the cipher core described by dev in its current state.
// With the reset option the core is initialized instead and its configured
// lanes and key select are applied.
func open(dev *config.Device, factory logging.LoggerFactory) (d *device, err error) {
	bus, mem, err := newBus(dev)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", dev.Name, err)
	}

	d = &device{
		cfg: dev,
		bus: bus,
		mem: mem,
	}

	var c *cipher.Cipher

	if conf.reset {
		c, err = cipher.Init(bus, dev.CipherConfig(factory))
	} else {
		c, err = cipher.Attach(bus, dev.CipherConfig(factory))
	}

	if err != nil {
		d.Close()
		return nil, fmt.Errorf("%s: %w", dev.Name, err)
	}

	if v := c.Version(); len(dev.MinVersion) > 0 && !v.AtLeast(dev.MinVersion) {
		log.Printf("warning: %s core version %s is older than %s", dev.Name, v, dev.MinVersion)
	}

	if conf.reset {
		if dev.Lanes > 0 {
			c.SetNumLanes(dev.Lanes)
		}

		c.SetKeySelect(dev.KeySelect)
	}

	d.x = cipher.NewExclusive(c)

	return
}

// ackBudget returns the number of status reads granted to a request.
func (d *device) ackBudget() int {
	if d.cfg.AckBudget > 0 {
		return d.cfg.AckBudget
	}

	return cipher.DEFAULT_ACK_BUDGET
}

func (d *device) Close() error {
	if d.mem == nil {
		return nil
	}

	return d.mem.Close()
}
