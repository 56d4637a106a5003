// Copyright 2025 The LanScan Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scan

import (
	"context"
	"time"

	"github.com/lanscango/lanscan/pkg/logger"
	"github.com/lanscango/lanscan/pkg/models"
	"github.com/lanscango/lanscan/pkg/scanerrors"
	"github.com/lanscango/lanscan/pkg/targets"
	"github.com/lanscango/lanscan/pkg/wire"
)

// FullConfig names the inputs a FullScanner is built from.
type FullConfig struct {
	Interface        *models.Interface
	Wire             wire.Pair
	IPTargets        *targets.IPTargets
	Ports            *targets.PortTargets
	SourcePort       uint16
	IncludeVendor    bool
	IncludeHostNames bool
	IdleTimeout      time.Duration
	Logger           logger.Logger
}

// FullScanner composes an ARPScanner followed by a SYNScanner over the
// devices the ARP sweep discovers.
type FullScanner struct {
	cfg FullConfig
	log logger.Logger
}

// NewFullScanner validates cfg and returns a ready-to-run FullScanner.
func NewFullScanner(cfg FullConfig) (*FullScanner, error) {
	if cfg.Interface == nil {
		return nil, scanerrors.ErrInterfaceNotFound
	}

	if cfg.IPTargets == nil || cfg.Ports == nil {
		return nil, scanerrors.ErrNoTargets
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &FullScanner{cfg: cfg, log: log}, nil
}

// Scan runs the ARP sweep to completion in a background goroutine,
// forwards its ARPResult/Info/ScanError messages verbatim, suppresses
// its inner Done, then runs a SYN sweep over the discovered devices and
// forwards its messages too, finishing with one outer Done.
func (s *FullScanner) Scan(ctx context.Context) (*Handle, error) {
	h := newHandle()

	arpScanner, err := NewARPScanner(ARPConfig{
		Interface:        s.cfg.Interface,
		Wire:             s.cfg.Wire,
		Targets:          s.cfg.IPTargets,
		SourcePort:       s.cfg.SourcePort,
		IncludeVendor:    s.cfg.IncludeVendor,
		IncludeHostNames: s.cfg.IncludeHostNames,
		IdleTimeout:      s.cfg.IdleTimeout,
		Logger:           s.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		s.run(ctx, h, arpScanner)
	}()

	return h, nil
}

func (s *FullScanner) run(ctx context.Context, h *Handle, arpScanner *ARPScanner) {
	arpHandle, err := arpScanner.Scan(ctx)
	if err != nil {
		h.setErr(err)
		h.messages <- models.Done()
		close(h.messages)

		return
	}

	var devices []models.Device

	for msg := range arpHandle.Messages() {
		if msg.Kind == models.KindDone {
			// Inner ARP Done is not forwarded; the outer Done comes only
			// after the SYN phase also completes (§4.8).
			continue
		}

		if msg.Kind == models.KindARPResult {
			devices = append(devices, msg.ARPResult)
		}

		h.messages <- msg
	}

	if err := arpHandle.Wait(); err != nil {
		h.setErr(err)
		h.messages <- models.Done()
		close(h.messages)

		return
	}

	synScanner, err := NewSYNScanner(SYNConfig{
		Interface:   s.cfg.Interface,
		Wire:        s.cfg.Wire,
		Devices:     devices,
		Ports:       s.cfg.Ports,
		SourcePort:  s.cfg.SourcePort,
		IdleTimeout: s.cfg.IdleTimeout,
		Logger:      s.cfg.Logger,
	})
	if err != nil {
		h.setErr(err)
		h.messages <- models.Done()
		close(h.messages)

		return
	}

	synHandle, err := synScanner.Scan(ctx)
	if err != nil {
		h.setErr(err)
		h.messages <- models.Done()
		close(h.messages)

		return
	}

	for msg := range synHandle.Messages() {
		h.messages <- msg
	}

	if err := synHandle.Wait(); err != nil {
		h.setErr(err)
	}

	close(h.messages)
}
