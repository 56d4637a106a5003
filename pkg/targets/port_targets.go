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

package targets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lanscango/lanscan/pkg/scanerrors"
)

// PortTargets is a materialized, deduplicated, order-preserving sequence
// of TCP port numbers built from a list of textual specifiers.
type PortTargets struct {
	ports []uint16
}

// NewPortTargets parses specs (a single integer, or an inclusive
// "lo-hi" range) into a PortTargets. Ports must fall in [1, 65535].
func NewPortTargets(specs []string) (*PortTargets, error) {
	seen := make(map[uint16]struct{})

	var ports []uint16

	add := func(p uint16) {
		if _, dup := seen[p]; dup {
			return
		}

		seen[p] = struct{}{}

		ports = append(ports, p)
	}

	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}

		if strings.Contains(spec, "-") {
			lo, hi, err := parsePortRange(spec)
			if err != nil {
				return nil, err
			}

			for p := lo; p <= hi; p++ {
				add(p)

				if p == hi {
					break // guards against hi == 65535 wrapping uint16 to 0
				}
			}

			continue
		}

		p, err := parsePort(spec)
		if err != nil {
			return nil, err
		}

		add(p)
	}

	return &PortTargets{ports: ports}, nil
}

// Len returns the exact, cheap count of distinct ports in the set.
func (t *PortTargets) Len() int { return len(t.ports) }

// All returns the expanded ports in input order.
func (t *PortTargets) All() []uint16 {
	out := make([]uint16, len(t.ports))
	copy(out, t.ports)

	return out
}

func parsePortRange(spec string) (lo, hi uint16, err error) {
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", scanerrors.ErrBadTarget, spec)
	}

	lo, err = parsePort(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}

	hi, err = parsePort(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}

	if lo > hi {
		return 0, 0, fmt.Errorf("%w: %q: range start after end", scanerrors.ErrBadTarget, spec)
	}

	return lo, hi, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("%w: %q", scanerrors.ErrBadTarget, s)
	}

	return uint16(n), nil
}
