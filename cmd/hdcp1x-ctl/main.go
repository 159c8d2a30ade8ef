// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pion/logging"

	"github.com/usbarmory/hdcp1x-cipher/internal/config"
)

type Config struct {
	table   string
	device  string
	sim     bool
	reset   bool
	json    bool
	verbose bool
	timeout time.Duration
}

var conf *Config

func init() {
	log.SetOutput(os.Stdout)

	conf = &Config{}

	flag.Usage = func() {
		fmt.Print(usage)
	}

	flag.StringVar(&conf.table, "c", "", "device table")
	flag.StringVar(&conf.device, "d", "", "device name")
	flag.BoolVar(&conf.sim, "s", false, "use a simulated core")
	flag.BoolVar(&conf.reset, "r", false, "reset and initialize the core")
	flag.BoolVar(&conf.json, "j", false, "JSON status output")
	flag.BoolVar(&conf.verbose, "v", false, "verbose driver logging")
	flag.DurationVar(&conf.timeout, "t", 10*time.Second, "device acquisition timeout")
}

func main() {
	flag.Parse()

	args := flag.Args()

	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	table, err := config.Load(conf.table)

	if err != nil {
		log.Fatalf("configuration error, %v", err)
	}

	factory := logging.NewDefaultLoggerFactory()

	if conf.verbose {
		factory.DefaultLogLevel = logging.LogLevelDebug
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.timeout)
	defer cancel()

	if len(args) == 1 && args[0] == "status" && len(conf.device) == 0 {
		err = statusAll(ctx, table.Devices, factory)
	} else {
		err = runOn(ctx, table, factory, args)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func runOn(ctx context.Context, table *config.File, factory logging.LoggerFactory, args []string) error {
	dev, err := table.Find(conf.device)

	if err != nil {
		return err
	}

	d, err := open(dev, factory)

	if err != nil {
		return err
	}

	defer d.Close()

	return d.run(ctx, args)
}
