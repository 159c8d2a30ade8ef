// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/usbarmory/hdcp1x-cipher/internal/cipher"
	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
)

type command struct {
	args int
	fn   func(d *device, c *cipher.Cipher, args []string) error
}

var commands = map[string]command{
	"status":     {0, statusCmd},
	"version":    {0, versionCmd},
	"enable":     {0, enableCmd},
	"disable":    {0, disableCmd},
	"encrypt":    {1, encryptCmd},
	"decrypt":    {1, decryptCmd},
	"ksv":        {0, ksvCmd},
	"remote-ksv": {1, remoteKSVCmd},
	"request":    {1, requestCmd},
	"lanes":      {1, lanesCmd},
	"irq":        {0, irqCmd},
}

var requests = map[string]cipher.Request{
	"block":  cipher.RequestBlock,
	"rekeyi": cipher.RequestRekeyi,
	"rng":    cipher.RequestRNG,
}

// run executes a command sequence holding the device for each command.
func (d *device) run(ctx context.Context, args []string) error {
	for len(args) > 0 {
		name := args[0]
		cmd, ok := commands[name]

		if !ok {
			return fmt.Errorf("unknown command %q", name)
		}

		if len(args) < 1+cmd.args {
			return fmt.Errorf("%s: missing argument", name)
		}

		op := args[1 : 1+cmd.args]
		args = args[1+cmd.args:]

		err := d.x.Do(ctx, func(c *cipher.Cipher) error {
			return cmd.fn(d, c, op)
		})

		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

func statusCmd(d *device, c *cipher.Cipher, _ []string) error {
	s, err := status(d, c)

	if err != nil {
		return err
	}

	return printStatus(s)
}

func versionCmd(d *device, c *cipher.Cipher, _ []string) error {
	log.Printf("hdcp1x-ctl %s (%s)", Revision, Build)
	log.Printf("%s core %s", d.cfg.Name, c.Version())

	return nil
}

func enableCmd(d *device, c *cipher.Cipher, _ []string) error {
	return c.Enable()
}

func disableCmd(d *device, c *cipher.Cipher, _ []string) error {
	return c.Disable()
}

func parseMask(s string) (uint64, error) {
	mask, err := strconv.ParseUint(s, 0, 64)

	if err != nil {
		return 0, fmt.Errorf("invalid stream mask %q", s)
	}

	return mask, nil
}

func encryptCmd(d *device, c *cipher.Cipher, args []string) error {
	mask, err := parseMask(args[0])

	if err != nil {
		return err
	}

	if err = c.EnableEncryption(mask); err != nil {
		return err
	}

	log.Printf("%s encryption map %#016x", d.cfg.Name, c.Encryption())

	return nil
}

func decryptCmd(d *device, c *cipher.Cipher, args []string) error {
	mask, err := parseMask(args[0])

	if err != nil {
		return err
	}

	if err = c.DisableEncryption(mask); err != nil {
		return err
	}

	log.Printf("%s encryption map %#016x", d.cfg.Name, c.Encryption())

	return nil
}

func ksvCmd(d *device, c *cipher.Cipher, _ []string) error {
	ksv, err := c.LocalKSV()

	if err != nil {
		return err
	}

	if ksv == 0 {
		return errors.New("local KSV not available")
	}

	log.Printf("%s local KSV %#010x", d.cfg.Name, ksv)

	return nil
}

func remoteKSVCmd(d *device, c *cipher.Cipher, args []string) error {
	ksv, err := strconv.ParseUint(args[0], 0, 64)

	if err != nil || ksv > cipher.KSV_MASK {
		return fmt.Errorf("invalid KSV %q", args[0])
	}

	if err = c.SetRemoteKSV(ksv); err != nil {
		return err
	}

	log.Printf("%s remote KSV %#010x, Km computed", d.cfg.Name, c.RemoteKSV())

	return nil
}

func requestCmd(d *device, c *cipher.Cipher, args []string) (err error) {
	r, ok := requests[args[0]]

	if !ok {
		return fmt.Errorf("invalid request %q", args[0])
	}

	if err = c.DoRequest(r); err != nil {
		return
	}

	budget := d.ackBudget()

	for i := 0; !c.IsRequestComplete(); i++ {
		if i == budget {
			return fmt.Errorf("%w: %s request not complete", cipher.ErrTimeout, r)
		}
	}

	mi, err := c.Mi()

	if err != nil {
		return
	}

	ri, err := c.Ri()

	if err != nil {
		return
	}

	log.Printf("%s %s request complete, Mi %#016x Ri %#04x", d.cfg.Name, r, mi, ri)

	return
}

func lanesCmd(d *device, c *cipher.Cipher, args []string) error {
	n, err := strconv.Atoi(args[0])

	if err != nil {
		return fmt.Errorf("invalid lane count %q", args[0])
	}

	switch {
	case c.IsHDMI() && n != 1:
		return fmt.Errorf("HDMI supports a single lane")
	case n < 1 || n > hw.MAX_LANES || n == 3:
		return fmt.Errorf("invalid lane count %d", n)
	}

	c.SetNumLanes(n)

	return nil
}

func irqCmd(d *device, c *cipher.Cipher, _ []string) error {
	c.SetCallback(cipher.LinkFail, func() {
		log.Printf("%s link failure", d.cfg.Name)
	})

	c.SetCallback(cipher.RiUpdate, func() {
		if ri, err := c.Ri(); err == nil {
			log.Printf("%s Ri update %#04x", d.cfg.Name, ri)
		}
	})

	if err := c.SetLinkStateCheck(true); err != nil && !errors.Is(err, cipher.ErrNoFeature) {
		return err
	}

	c.SetRiUpdate(true)
	c.HandleInterrupt()

	return nil
}
