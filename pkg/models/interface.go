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

// Package models provides the data types shared by the scanning engine
// and its callers (the CLI front-end, and anything else that embeds it).
package models

import "net"

// Interface describes the local network interface a scan runs from.
// It is immutable for the lifetime of a scan.
type Interface struct {
	Name string
	IPv4 net.IP
	MAC  net.HardwareAddr
	CIDR *net.IPNet
}
