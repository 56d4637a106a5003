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

// Package targets expands textual IP/port specifications — single
// addresses, dash ranges, CIDR blocks, and port ranges — into
// restartable, deduplicated, order-preserving sequences.
package targets

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"

	"github.com/lanscango/lanscan/pkg/scanerrors"
)

// IPTargets is a materialized, deduplicated, order-preserving sequence
// of IPv4 addresses built from a list of textual specifiers. Because
// the slice is built eagerly at New() time, iteration is restartable and
// Len() is O(1) — callers that want to size progress reporting before
// the first probe can do so.
type IPTargets struct {
	ips []net.IP
}

// NewIPTargets parses specs (dotted-quad, "A.B.C.D-E.F.G.H" range, or
// "A.B.C.D/N" CIDR) into an IPTargets. Duplicates are suppressed across
// the whole input list, in first-seen order.
func NewIPTargets(specs []string) (*IPTargets, error) {
	seen := make(map[string]struct{})

	var ips []net.IP

	add := func(ip net.IP) {
		key := ip.String()
		if _, dup := seen[key]; dup {
			return
		}

		seen[key] = struct{}{}

		ips = append(ips, ip)
	}

	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}

		switch {
		case strings.Contains(spec, "/"):
			expanded, err := expandCIDR(spec)
			if err != nil {
				return nil, err
			}

			for _, ip := range expanded {
				add(ip)
			}
		case strings.Contains(spec, "-"):
			expanded, err := expandIPRange(spec)
			if err != nil {
				return nil, err
			}

			for _, ip := range expanded {
				add(ip)
			}
		default:
			ip := net.ParseIP(spec)
			if ip == nil || ip.To4() == nil {
				return nil, fmt.Errorf("%w: %q", scanerrors.ErrBadTarget, spec)
			}

			add(ip.To4())
		}
	}

	return &IPTargets{ips: ips}, nil
}

// Len returns the exact, cheap count of distinct IPs in the set.
func (t *IPTargets) Len() int { return len(t.ips) }

// All returns the expanded IPs in input order. The returned slice is a
// fresh copy owned by the caller; mutating it does not affect t.
func (t *IPTargets) All() []net.IP {
	out := make([]net.IP, len(t.ips))
	copy(out, t.ips)

	return out
}

// expandCIDR expands "A.B.C.D/N" into every address in the block,
// including the network and broadcast addresses (unlike a routing table,
// an ARP sweep has legitimate reason to probe both).
func expandCIDR(spec string) ([]net.IP, error) {
	_, ipnet, err := net.ParseCIDR(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", scanerrors.ErrBadTarget, spec, err)
	}

	if ipnet.IP.To4() == nil {
		return nil, fmt.Errorf("%w: %q: not IPv4", scanerrors.ErrBadTarget, spec)
	}

	ones, bits := ipnet.Mask.Size()
	hostBits := bits - ones

	base := binary.BigEndian.Uint32(ipnet.IP.Mask(ipnet.Mask).To4())

	var count uint64 = 1
	if hostBits > 0 {
		count = uint64(1) << uint(hostBits)
	}

	out := make([]net.IP, 0, count)

	for i := uint64(0); i < count; i++ {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], base+uint32(i))
		out = append(out, net.IP(b[:]))
	}

	return out, nil
}

// expandIPRange expands "A.B.C.D-E.F.G.H" (inclusive, first <= second).
func expandIPRange(spec string) ([]net.IP, error) {
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %q", scanerrors.ErrBadTarget, spec)
	}

	lo := net.ParseIP(strings.TrimSpace(parts[0])).To4()
	hi := net.ParseIP(strings.TrimSpace(parts[1])).To4()

	if lo == nil || hi == nil {
		return nil, fmt.Errorf("%w: %q", scanerrors.ErrBadTarget, spec)
	}

	loN := binary.BigEndian.Uint32(lo)
	hiN := binary.BigEndian.Uint32(hi)

	if loN > hiN {
		return nil, fmt.Errorf("%w: %q: range start after end", scanerrors.ErrBadTarget, spec)
	}

	out := make([]net.IP, 0, hiN-loN+1)

	for n := loN; ; n++ {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], n)
		out = append(out, net.IP(b[:]))

		if n == hiN {
			break
		}
	}

	return out, nil
}
