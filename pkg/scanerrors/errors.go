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

// Package scanerrors collects the sentinel errors the engine returns,
// grouped by the concern that raises them.
package scanerrors

import "errors"

var (
	// Interface errors
	ErrInterfaceNotFound = errors.New("no suitable default interface found")
	ErrInterfaceNoIPv4   = errors.New("interface has no IPv4 address")

	// Target expansion errors
	ErrBadTarget = errors.New("malformed target specification")

	// Wire errors
	ErrPermissionDenied = errors.New("cannot open raw packet channel (requires elevated privilege)")
	ErrWireIO           = errors.New("wire I/O error")
	ErrWireClosed       = errors.New("wire is closed")

	// Packet build/parse errors. ErrPacketBuild should be unreachable
	// given validated inputs; the parse errors are returned for every
	// captured frame that is not a reply to this scanner.
	ErrPacketBuild = errors.New("packet build error")
	ErrShortFrame  = errors.New("frame too short to parse")
	ErrNotARP      = errors.New("not an ARP frame")
	ErrNotIPv4TCP  = errors.New("not an IPv4/TCP frame")
	ErrWrongTarget = errors.New("reply not addressed to this scanner")

	// Scan lifecycle
	ErrScanAlreadyRunning = errors.New("scan already running")
	ErrNoTargets          = errors.New("no targets to scan")
)
