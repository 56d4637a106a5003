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
	"math/rand"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/lanscango/lanscan/pkg/logger"
	"github.com/lanscango/lanscan/pkg/models"
	"github.com/lanscango/lanscan/pkg/packet"
	"github.com/lanscango/lanscan/pkg/scanerrors"
	"github.com/lanscango/lanscan/pkg/targets"
	"github.com/lanscango/lanscan/pkg/wire"
)

const synPacingDelay = 3 * time.Millisecond

// SYNConfig names the inputs a SYNScanner is built from.
type SYNConfig struct {
	Interface   *models.Interface
	Wire        wire.Pair
	Devices     []models.Device
	Ports       *targets.PortTargets
	SourcePort  uint16
	IdleTimeout time.Duration
	Logger      logger.Logger
}

// SYNScanner probes the Cartesian product of Devices x Ports with
// half-open TCP SYNs and emits a SynResult for each one found open.
type SYNScanner struct {
	cfg      SYNConfig
	log      logger.Logger
	sendLock sync.Mutex
}

// NewSYNScanner validates cfg and returns a ready-to-run SYNScanner.
func NewSYNScanner(cfg SYNConfig) (*SYNScanner, error) {
	if cfg.Interface == nil {
		return nil, scanerrors.ErrInterfaceNotFound
	}

	if cfg.Ports == nil {
		return nil, scanerrors.ErrNoTargets
	}

	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &SYNScanner{cfg: cfg, log: log}, nil
}

// send serializes access to the shared wire sender: both the sender
// goroutine (probes) and the reader goroutine (RST teardown) transmit
// on it: it must be safe for concurrent send.
func (s *SYNScanner) send(frame []byte) error {
	s.sendLock.Lock()
	defer s.sendLock.Unlock()

	return s.cfg.Wire.Sender.Send(frame)
}

// Scan starts the sweep in background goroutines and returns a Handle.
func (s *SYNScanner) Scan(ctx context.Context) (*Handle, error) {
	h := newHandle()

	scanCtx, cancel := context.WithCancel(ctx)

	idle := newIdleTimer(s.cfg.IdleTimeout)

	devicesByIP := make(map[string]models.Device, len(s.cfg.Devices))
	for _, d := range s.cfg.Devices {
		devicesByIP[d.IP] = d
	}

	var mu sync.Mutex

	seenPairs := make(map[string]struct{})

	emit := func(msg models.ScanMessage) bool {
		select {
		case h.messages <- msg:
			return true
		case <-scanCtx.Done():
			return false
		}
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

		err := s.runReader(scanCtx, emit, idle, &mu, seenPairs, devicesByIP)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Msg("SYN reader stopped on wire error")
			h.setErr(err)
		}

		cancel()

		h.messages <- models.Done()
		close(h.messages)
	}()

	return h, nil
}

func (s *SYNScanner) runSender(ctx context.Context, emit func(models.ScanMessage) bool, idle *idleTimer) {
	defer idle.Arm()

	ports := s.cfg.Ports.All()

	for _, device := range s.cfg.Devices {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !emit(models.Info(device.IP)) {
			return
		}

		mac, err := net.ParseMAC(device.MAC)
		if err != nil {
			emit(models.ScanError(device.IP, err))
			continue
		}

		ip := net.ParseIP(device.IP)
		if ip == nil {
			emit(models.ScanError(device.IP, scanerrors.ErrBadTarget))
			continue
		}

		for _, port := range ports {
			select {
			case <-ctx.Done():
				return
			default:
			}

			spec := packet.SYNSpec{
				SrcMAC:  s.cfg.Interface.MAC,
				DstMAC:  mac,
				SrcIP:   s.cfg.Interface.IPv4,
				DstIP:   ip,
				SrcPort: s.cfg.SourcePort,
				DstPort: port,
				Seq:     rand.Uint32(),
			}

			frame, err := packet.BuildSYN(spec)
			if err != nil {
				s.log.Error().Err(err).Str("ip", device.IP).Uint16("port", port).Msg("Failed to build SYN packet")
				emit(models.ScanError(device.IP, err))

				continue
			}

			if err := s.send(frame); err != nil {
				s.log.Warn().Err(err).Str("ip", device.IP).Uint16("port", port).Msg("Failed to send SYN packet")
				emit(models.ScanError(device.IP, err))

				continue
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(synPacingDelay):
			}
		}
	}
}

func (s *SYNScanner) runReader(
	ctx context.Context,
	emit func(models.ScanMessage) bool,
	idle *idleTimer,
	mu *sync.Mutex,
	seenPairs map[string]struct{},
	devicesByIP map[string]models.Device,
) error {
	return wire.ReadLoop(ctx, s.cfg.Wire.Reader, wireReadTimeout, func(frame []byte) bool {
		resp, err := packet.ClassifyResponse(frame, s.cfg.Interface.IPv4, s.cfg.SourcePort)
		if err != nil {
			return true
		}

		idle.Reset()

		switch resp.Kind {
		case packet.ResponseClosed:
			// RST: port closed, no result, nothing further to do.
			return true
		case packet.ResponseOpen:
			// handled below
		default:
			return true
		}

		device, ok := devicesByIP[resp.SrcIP.String()]
		if !ok {
			return true
		}

		pairKey := device.MAC + "|" + strconv.Itoa(int(resp.SrcPort))

		mu.Lock()
		_, dup := seenPairs[pairKey]
		if !dup {
			seenPairs[pairKey] = struct{}{}
		}
		mu.Unlock()

		// The half-open connection is always torn down with a RST, even
		// on a duplicate SYN|ACK retransmission (§4.4/§4.7 tie-breaks).
		s.sendRST(resp)

		if dup {
			return true
		}

		port := models.Port{ID: resp.SrcPort, Service: packet.ServiceName(resp.SrcPort)}
		emit(models.SYNResultMessage(models.SynResult{Device: device, Port: port}))

		return true
	})
}

// sendRST tears down the half-open connection. It must
// be sent regardless of whether the (device, port) pair turns out to be
// a duplicate, and its failure never affects result emission.
func (s *SYNScanner) sendRST(resp *packet.SYNResponse) {
	rstSpec := packet.SYNSpec{
		SrcMAC:  s.cfg.Interface.MAC,
		DstMAC:  resp.SrcMAC,
		SrcIP:   s.cfg.Interface.IPv4,
		DstIP:   resp.SrcIP,
		SrcPort: s.cfg.SourcePort,
		DstPort: resp.SrcPort,
		Seq:     resp.Ack,
		Ack:     resp.Seq + 1,
	}

	frame, err := packet.BuildRST(rstSpec)
	if err != nil {
		return
	}

	_ = s.send(frame)
}
