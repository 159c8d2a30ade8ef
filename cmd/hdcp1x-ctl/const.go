// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

const (
	// simulated core identification
	simVersion  = 0x01000000
	simLocalKSV = 0x8f_a1b2c3d4
)

const usage = `Usage: hdcp1x-ctl [OPTIONS] COMMAND [ARGS] [COMMAND [ARGS]...]
  -h    show this help

  -c string
        device table (default: embedded table)
  -d string
        device name (default: first device)
  -s    use a simulated core instead of /dev/mem
  -r    reset and initialize the core, applying its configured lanes and
        key select (default: attach to the core in its current state)
  -j    JSON status output
  -v    verbose driver logging
  -t duration
        device acquisition timeout (default 10s)

Commands, executed in sequence on the selected device:
  status                  show device status without altering it (all devices
                          when -d is not set and status is the only command)
  version                 show tool and core versions
  enable                  enable the core
  disable                 disable the core
  encrypt <mask>          enable encryption on the streams in mask
  decrypt <mask>          disable encryption on the streams in mask
  ksv                     show the local KSV
  remote-ksv <ksv>        set the remote KSV and compute Km (0x prefix for hex)
  request <kind>          trigger a cipher request (block, rekeyi, rng)
  lanes <n>               set the number of lanes
  irq                     handle pending interrupts
`
