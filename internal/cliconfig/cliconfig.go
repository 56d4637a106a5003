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

// Package cliconfig parses the lanscan CLI's flags into a Config. It
// holds no on-disk persistence or TUI state, only the in-memory shape
// flag.FlagSet produces for one invocation.
package cliconfig

import (
	"flag"
	"strings"
	"time"
)

// Config is the fully-parsed set of options for one scan invocation.
type Config struct {
	TargetsCSV   string
	PortsCSV     string
	ARPOnly      bool
	Vendor       bool
	HostNames    bool
	InterfaceArg string
	SourcePort   int
	IdleTimeout  time.Duration
	JSONOutput   bool
	Quiet        bool
	Debug        bool
}

// Parse builds a FlagSet named name, parses args into it, and returns
// the resulting Config. It mirrors the flat flag.FlagSet idiom used
// elsewhere in this codebase rather than a subcommand framework.
func Parse(name string, args []string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	cfg := &Config{}

	var idleMs int

	fs.StringVar(&cfg.TargetsCSV, "targets", "", "CSV of IP specs (default: interface CIDR)")
	fs.StringVar(&cfg.PortsCSV, "ports", "1-65535", "CSV of port specs")
	fs.BoolVar(&cfg.ARPOnly, "arp-only", false, "skip the SYN sweep")
	fs.BoolVar(&cfg.Vendor, "vendor", false, "enrich devices with OUI vendor lookup")
	fs.BoolVar(&cfg.HostNames, "host-names", false, "enrich devices with reverse DNS lookup")
	fs.StringVar(&cfg.InterfaceArg, "interface", "", "interface name (default: auto-detect)")
	fs.IntVar(&cfg.SourcePort, "source-port", 0, "TCP source port (default: an ephemeral port)")
	fs.IntVar(&idleMs, "idle-timeout-ms", 10000, "idle timeout in milliseconds")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "emit JSON to stdout")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "suppress non-fatal diagnostics")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.IdleTimeout = time.Duration(idleMs) * time.Millisecond

	return cfg, nil
}

// TargetSpecs splits a CSV flag value into trimmed, non-empty entries.
func TargetSpecs(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}

	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
