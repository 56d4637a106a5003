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
	"errors"
	"net"
	"sync"
	"time"

	"github.com/lanscango/lanscan/pkg/enrich"
	"github.com/lanscango/lanscan/pkg/logger"
	"github.com/lanscango/lanscan/pkg/models"
	"github.com/lanscango/lanscan/pkg/packet"
	"github.com/lanscango/lanscan/pkg/scanerrors"
	"github.com/lanscango/lanscan/pkg/targets"
	"github.com/lanscango/lanscan/pkg/wire"
)

const (
	arpPacingDelay     = 3 * time.Millisecond
	idleMonitorTick    = 50 * time.Millisecond
	defaultIdleTimeout = 10 * time.Second
	wireReadTimeout    = 100 * time.Millisecond
	// enrichConcurrency bounds how many vendor/hostname lookups run at
	// once so a burst of replies can't spawn unbounded goroutines.
	enrichConcurrency = 8
)

// ARPConfig names the inputs an ARPScanner is built from.
type ARPConfig struct {
	Interface        *models.Interface
	Wire             wire.Pair
	Targets          *targets.IPTargets
	SourcePort       uint16
	IncludeVendor    bool
	IncludeHostNames bool
	IdleTimeout      time.Duration
	Logger           logger.Logger
}

// ARPScanner sweeps IPTargets with ARP requests and reassembles replies
// into Device values.
type ARPScanner struct {
	cfg       ARPConfig
	hostnames *enrich.HostnameLookup
	log       logger.Logger
}

// NewARPScanner validates cfg and returns a ready-to-run ARPScanner.
func NewARPScanner(cfg ARPConfig) (*ARPScanner, error) {
	if cfg.Interface == nil {
		return nil, scanerrors.ErrInterfaceNotFound
	}

	if cfg.Targets == nil {
		return nil, scanerrors.ErrNoTargets
	}

	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &ARPScanner{cfg: cfg, hostnames: enrich.NewHostnameLookup(), log: log}, nil
}

// Scan starts the sweep in background goroutines and returns a Handle
// immediately; the caller's goroutine does no scanning work after that.
func (s *ARPScanner) Scan(ctx context.Context) (*Handle, error) {
	h := newHandle()

	scanCtx, cancel := context.WithCancel(ctx)

	idle := newIdleTimer(s.cfg.IdleTimeout)

	var mu sync.Mutex

	seenMAC := make(map[string]struct{})

	var enrichWG sync.WaitGroup

	sem := make(chan struct{}, enrichConcurrency)

	emit := func(msg models.ScanMessage) bool {
		select {
		case h.messages <- msg:
			return true
		case <-scanCtx.Done():
			return false
		}
	}

	// Synthesize the current-host Device up front (§4.6, "including the
	// scanner's own host, once ... synthesized locally without
	// traffic"), if its IP is among the requested targets. The dedupe
	// set is seeded here before any concurrent writer starts, so it
	// stays single-writer from the reader's perspective afterward.
	if s.currentHostRequested() {
		seenMAC[s.cfg.Interface.MAC.String()] = struct{}{}

		enrichWG.Add(1)

		go func() {
			defer enrichWG.Done()
			s.emitDevice(scanCtx, emit, s.cfg.Interface.IPv4, s.cfg.Interface.MAC, true)
		}()
	}

	h.wg.Add(3)

	go func() {
		defer h.wg.Done()
		idle.Run(scanCtx.Done(), idleMonitorTick)
		cancel()
	}()

	go func() {
		defer h.wg.Done()
		s.runSender(scanCtx, emit, idle)
	}()

	go func() {
		defer h.wg.Done()

		err := s.runReader(scanCtx, emit, idle, &mu, seenMAC, sem, &enrichWG)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Msg("ARP reader stopped on wire error")
			h.setErr(err)
		}

		enrichWG.Wait()
		cancel()

		h.messages <- models.Done()
		close(h.messages)
	}()

	return h, nil
}

func (s *ARPScanner) currentHostRequested() bool {
	for _, ip := range s.cfg.Targets.All() {
		if ip.Equal(s.cfg.Interface.IPv4) {
			return true
		}
	}

	return false
}

func (s *ARPScanner) runSender(ctx context.Context, emit func(models.ScanMessage) bool, idle *idleTimer) {
	defer idle.Arm()

	ips := s.cfg.Targets.All()
	for _, ip := range ips {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !emit(models.Info(ip.String())) {
			return
		}

		frame, err := packet.BuildARPRequest(s.cfg.Interface.MAC, s.cfg.Interface.IPv4, ip)
		if err != nil {
			s.log.Error().Err(err).Str("ip", ip.String()).Msg("Failed to build ARP request")
			emit(models.ScanError(ip.String(), err))

			continue
		}

		if err := s.cfg.Wire.Sender.Send(frame); err != nil {
			s.log.Warn().Err(err).Str("ip", ip.String()).Msg("Failed to send ARP request")
			emit(models.ScanError(ip.String(), err))

			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(arpPacingDelay):
		}
	}
}

func (s *ARPScanner) runReader(
	ctx context.Context,
	emit func(models.ScanMessage) bool,
	idle *idleTimer,
	mu *sync.Mutex,
	seenMAC map[string]struct{},
	sem chan struct{},
	enrichWG *sync.WaitGroup,
) error {
	return wire.ReadLoop(ctx, s.cfg.Wire.Reader, wireReadTimeout, func(frame []byte) bool {
		reply, err := packet.ParseARPReply(frame, s.cfg.Interface.IPv4)
		if err != nil {
			return true
		}

		// Any valid reply resets the idle timer (§4.6 item 4), whether or
		// not it turns out to be a duplicate MAC.
		idle.Reset()

		macKey := reply.SenderMAC.String()

		mu.Lock()
		_, dup := seenMAC[macKey]
		if !dup {
			seenMAC[macKey] = struct{}{}
		}
		mu.Unlock()

		if dup {
			return true
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return false
		}

		enrichWG.Add(1)

		go func() {
			defer enrichWG.Done()
			defer func() { <-sem }()

			s.emitDevice(ctx, emit, reply.SenderIP, reply.SenderMAC, false)
		}()

		return true
	})
}

func (s *ARPScanner) emitDevice(ctx context.Context, emit func(models.ScanMessage) bool, ip net.IP, mac net.HardwareAddr, isCurrentHost bool) {
	vendor := ""
	if s.cfg.IncludeVendor {
		vendor = enrich.VendorForMAC(mac)
	}

	hostname := ""
	if s.cfg.IncludeHostNames {
		results := s.hostnames.Lookup(ctx, []string{ip.String()})
		hostname = results[ip.String()]
	}

	device := models.Device{
		IP:            ip.String(),
		MAC:           enrich.NormalizeMAC(mac),
		Hostname:      hostname,
		Vendor:        vendor,
		IsCurrentHost: isCurrentHost,
	}

	emit(models.ARPResultMessage(device))
}
