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

// Command lanscan is the reference CLI front-end for the scanning
// engine: it parses target/port specifications, opens a wire on the
// chosen interface, runs an ARP-only or full (ARP+SYN) scan, and prints
// the discovered devices as text or JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/lanscango/lanscan/internal/cliconfig"
	"github.com/lanscango/lanscan/pkg/iface"
	"github.com/lanscango/lanscan/pkg/logger"
	"github.com/lanscango/lanscan/pkg/models"
	"github.com/lanscango/lanscan/pkg/scan"
	"github.com/lanscango/lanscan/pkg/scanerrors"
	"github.com/lanscango/lanscan/pkg/targets"
	"github.com/lanscango/lanscan/pkg/wire"
)

const (
	exitOK = iota
	exitOther
	exitInvalidArgs
	exitPermissionDenied
	exitNoInterface
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := cliconfig.Parse("lanscan", args)
	if err != nil {
		return exitInvalidArgs
	}

	logCfg := logger.DefaultConfig()
	if cfg.Debug {
		logCfg.Debug = true
	}

	if cfg.Quiet {
		logCfg.Level = "error"
	}

	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "lanscan: failed to initialize logging: %v\n", err)
	}

	runID := uuid.New().String()
	log := logger.New("cmd")
	log.Info().Str("run_id", runID).Msg("Starting scan")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
		cancel()
	}()

	ifc, err := resolveInterface(cfg.InterfaceArg)
	if err != nil {
		if errors.Is(err, scanerrors.ErrInterfaceNotFound) || errors.Is(err, scanerrors.ErrInterfaceNoIPv4) {
			fmt.Fprintf(os.Stderr, "lanscan: %v\n", err)
			return exitNoInterface
		}

		fmt.Fprintf(os.Stderr, "lanscan: %v\n", err)

		return exitOther
	}

	sourcePort, err := resolveSourcePort(cfg.SourcePort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lanscan: %v\n", err)
		return exitOther
	}

	ipTargets, err := buildIPTargets(cfg.TargetsCSV, ifc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lanscan: %v\n", err)
		return exitInvalidArgs
	}

	var portTargets *targets.PortTargets

	if !cfg.ARPOnly {
		portTargets, err = targets.NewPortTargets(cliconfig.TargetSpecs(cfg.PortsCSV))
		if err != nil {
			fmt.Fprintf(os.Stderr, "lanscan: %v\n", err)
			return exitInvalidArgs
		}
	}

	wirePair, err := wire.OpenDefault(ifc)
	if err != nil {
		if errors.Is(err, scanerrors.ErrPermissionDenied) {
			fmt.Fprintf(os.Stderr, "lanscan: %v\n", err)
			return exitPermissionDenied
		}

		fmt.Fprintf(os.Stderr, "lanscan: %v\n", err)

		return exitOther
	}
	defer wirePair.Close()

	devices, err := runScan(ctx, log, runScanParams{
		ifc:         ifc,
		wire:        wirePair,
		ipTargets:   ipTargets,
		portTargets: portTargets,
		sourcePort:  sourcePort,
		arpOnly:     cfg.ARPOnly,
		vendor:      cfg.Vendor,
		hostNames:   cfg.HostNames,
		idleTimeout: cfg.IdleTimeout,
		quiet:       cfg.Quiet,
		jsonOutput:  cfg.JSONOutput,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lanscan: %v\n", err)
		return exitOther
	}

	printResults(devices, cfg.ARPOnly, cfg.JSONOutput)

	return exitOK
}

func resolveInterface(name string) (*models.Interface, error) {
	if name != "" {
		return iface.GetInterface(name)
	}

	return iface.GetDefaultInterface()
}

func resolveSourcePort(requested int) (uint16, error) {
	if requested > 0 && requested <= 65535 {
		return uint16(requested), nil
	}

	return iface.GetAvailableEphemeralPort()
}

func buildIPTargets(csv string, ifc *models.Interface) (*targets.IPTargets, error) {
	specs := cliconfig.TargetSpecs(csv)
	if len(specs) == 0 {
		specs = []string{ifc.CIDR.String()}
	}

	return targets.NewIPTargets(specs)
}

type runScanParams struct {
	ifc         *models.Interface
	wire        wire.Pair
	ipTargets   *targets.IPTargets
	portTargets *targets.PortTargets
	sourcePort  uint16
	arpOnly     bool
	vendor      bool
	hostNames   bool
	idleTimeout time.Duration
	quiet       bool
	jsonOutput  bool
}

// deviceRecord accumulates what a scan observed about one MAC: the ARP
// result plus any SYN results that followed.
type deviceRecord struct {
	device models.Device
	ports  []models.Port
}

func runScan(ctx context.Context, log logger.Logger, p runScanParams) ([]*deviceRecord, error) {
	var handle *scan.Handle

	var err error

	if p.arpOnly {
		var s *scan.ARPScanner

		s, err = scan.NewARPScanner(scan.ARPConfig{
			Interface:        p.ifc,
			Wire:             p.wire,
			Targets:          p.ipTargets,
			SourcePort:       p.sourcePort,
			IncludeVendor:    p.vendor,
			IncludeHostNames: p.hostNames,
			IdleTimeout:      p.idleTimeout,
			Logger:           log,
		})
		if err == nil {
			handle, err = s.Scan(ctx)
		}
	} else {
		var s *scan.FullScanner

		s, err = scan.NewFullScanner(scan.FullConfig{
			Interface:        p.ifc,
			Wire:             p.wire,
			IPTargets:        p.ipTargets,
			Ports:            p.portTargets,
			SourcePort:       p.sourcePort,
			IncludeVendor:    p.vendor,
			IncludeHostNames: p.hostNames,
			IdleTimeout:      p.idleTimeout,
			Logger:           log,
		})
		if err == nil {
			handle, err = s.Scan(ctx)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("starting scan: %w", err)
	}

	byMAC := make(map[string]*deviceRecord)

	var order []string

	for msg := range handle.Messages() {
		switch msg.Kind {
		case models.KindInfo:
			if !p.quiet && !p.jsonOutput {
				fmt.Fprintf(os.Stderr, "probing %s\n", msg.InfoIP)
			}
		case models.KindARPResult:
			rec := &deviceRecord{device: msg.ARPResult}
			byMAC[msg.ARPResult.MAC] = rec
			order = append(order, msg.ARPResult.MAC)
		case models.KindSYNResult:
			mac := msg.SYNResult.Device.MAC
			if rec, ok := byMAC[mac]; ok {
				rec.ports = append(rec.ports, msg.SYNResult.Port)
			}
		case models.KindScanError:
			if !p.quiet {
				fmt.Fprintf(os.Stderr, "lanscan: %s: %v\n", msg.ErrIP, msg.Err)
			}
		case models.KindDone:
		}
	}

	if err := handle.Wait(); err != nil {
		return nil, err
	}

	out := make([]*deviceRecord, 0, len(order))
	for _, mac := range order {
		out = append(out, byMAC[mac])
	}

	return out, nil
}

type portJSON struct {
	ID      uint16 `json:"id"`
	Service string `json:"service"`
}

type deviceJSON struct {
	Hostname      string     `json:"hostname"`
	IP            string     `json:"ip"`
	MAC           string     `json:"mac"`
	Vendor        string     `json:"vendor"`
	IsCurrentHost bool       `json:"is_current_host"`
	OpenPorts     []portJSON `json:"open_ports"`
}

type deviceJSONArpOnly struct {
	Hostname      string `json:"hostname"`
	IP            string `json:"ip"`
	MAC           string `json:"mac"`
	Vendor        string `json:"vendor"`
	IsCurrentHost bool   `json:"is_current_host"`
}

func printResults(records []*deviceRecord, arpOnly bool, jsonOutput bool) {
	if jsonOutput {
		printJSON(records, arpOnly)
		return
	}

	for _, rec := range records {
		d := rec.device

		fmt.Printf("%s\t%s\t%s\t%s", d.IP, d.MAC, d.Vendor, d.Hostname)

		if d.IsCurrentHost {
			fmt.Print("\t(this host)")
		}

		fmt.Println()

		for _, p := range rec.ports {
			fmt.Printf("  open %d/tcp %s\n", p.ID, p.Service)
		}
	}
}

func printJSON(records []*deviceRecord, arpOnly bool) {
	enc := json.NewEncoder(os.Stdout)

	if arpOnly {
		out := make([]deviceJSONArpOnly, 0, len(records))
		for _, rec := range records {
			out = append(out, deviceJSONArpOnly{
				Hostname:      rec.device.Hostname,
				IP:            rec.device.IP,
				MAC:           rec.device.MAC,
				Vendor:        rec.device.Vendor,
				IsCurrentHost: rec.device.IsCurrentHost,
			})
		}

		_ = enc.Encode(out)

		return
	}

	out := make([]deviceJSON, 0, len(records))

	for _, rec := range records {
		ports := make([]portJSON, 0, len(rec.ports))
		for _, p := range rec.ports {
			ports = append(ports, portJSON{ID: p.ID, Service: p.Service})
		}

		out = append(out, deviceJSON{
			Hostname:      rec.device.Hostname,
			IP:            rec.device.IP,
			MAC:           rec.device.MAC,
			Vendor:        rec.device.Vendor,
			IsCurrentHost: rec.device.IsCurrentHost,
			OpenPorts:     ports,
		})
	}

	_ = enc.Encode(out)
}
