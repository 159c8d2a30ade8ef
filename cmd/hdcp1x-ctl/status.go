// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/pion/logging"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/usbarmory/hdcp1x-cipher/internal/cipher"
	"github.com/usbarmory/hdcp1x-cipher/internal/config"
)

func status(d *device, c *cipher.Cipher) (*structpb.Struct, error) {
	s := map[string]interface{}{
		"name":     d.cfg.Name,
		"id":       uint32(d.cfg.ID),
		"base":     fmt.Sprintf("%#x", d.cfg.Base),
		"role":     d.cfg.Role.String(),
		"protocol": d.cfg.Protocol.String(),
		"version":  c.Version().String(),
		"enabled":  c.IsEnabled(),
	}

	if !c.IsEnabled() {
		return structpb.NewStruct(s)
	}

	s["link_up"] = c.IsLinkUp()
	s["lanes"] = c.NumLanes()
	s["key_select"] = c.KeySelect()
	s["encryption"] = fmt.Sprintf("%#016x", c.Encryption())
	s["request_complete"] = c.IsRequestComplete()
	s["remote_ksv"] = fmt.Sprintf("%#010x", c.RemoteKSV())

	// a reload would abort any pending Km computation
	if c.IsLocalKSVReady() {
		if ksv, err := c.LocalKSV(); err == nil {
			s["local_ksv"] = fmt.Sprintf("%#010x", ksv)
		}
	}

	return structpb.NewStruct(s)
}

func printStatus(s *structpb.Struct) error {
	if conf.json {
		buf, err := protojson.MarshalOptions{Multiline: true}.Marshal(s)

		if err != nil {
			return err
		}

		log.Println(string(buf))

		return nil
	}

	var keys []string

	for k := range s.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	log.Println()

	for _, k := range keys {
		log.Printf("%-18s %v", k, s.Fields[k].AsInterface())
	}

	return nil
}

// statusAll queries all devices concurrently, results are printed in table
// order.
func statusAll(ctx context.Context, devices []*config.Device, factory logging.LoggerFactory) error {
	res := make([]*structpb.Struct, len(devices))
	g, ctx := errgroup.WithContext(ctx)

	for i, dev := range devices {
		i, dev := i, dev

		g.Go(func() error {
			d, err := open(dev, factory)

			if err != nil {
				return err
			}

			defer d.Close()

			return d.x.Do(ctx, func(c *cipher.Cipher) (err error) {
				res[i], err = status(d, c)
				return
			})
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, s := range res {
		if err := printStatus(s); err != nil {
			return err
		}
	}

	return nil
}
