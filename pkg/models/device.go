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

package models

// Device is a host discovered by the ARP scanner.
type Device struct {
	IP            string `json:"ip"`
	MAC           string `json:"mac"` // lower-case colon-separated hex
	Hostname      string `json:"hostname"`
	Vendor        string `json:"vendor"`
	IsCurrentHost bool   `json:"is_current_host"`
}

// Port is a TCP port number with an optional, purely informational
// service name looked up from a static well-known port table.
type Port struct {
	ID      uint16 `json:"id"`
	Service string `json:"service"`
}

// SynResult pairs a discovered Device with one of its open ports.
// The engine emits at most one SynResult per (MAC, port) pair.
type SynResult struct {
	Device Device `json:"device"`
	Port   Port   `json:"port"`
}
