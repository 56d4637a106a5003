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

// Package iface enumerates local network interfaces and picks a default
// one to scan from.
package iface

import (
	"fmt"
	"net"

	"github.com/lanscango/lanscan/pkg/models"
	"github.com/lanscango/lanscan/pkg/scanerrors"
)

// GetDefaultInterface picks the first up, non-loopback interface (in OS
// order) that carries the IPv4 address the kernel uses for its default
// route.
func GetDefaultInterface() (*models.Interface, error) {
	routedIP, err := defaultRouteIP()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scanerrors.ErrInterfaceNotFound, err)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("enumerating interfaces: %w", err)
	}

	for i := range ifaces {
		candidate := &ifaces[i]

		if candidate.Flags&net.FlagUp == 0 || candidate.Flags&net.FlagLoopback != 0 {
			continue
		}

		ipv4, cidr, ok := ifaceOwnsIP(candidate, routedIP)
		if !ok {
			continue
		}

		return &models.Interface{
			Name: candidate.Name,
			IPv4: ipv4,
			MAC:  candidate.HardwareAddr,
			CIDR: cidr,
		}, nil
	}

	return nil, scanerrors.ErrInterfaceNotFound
}

// GetInterface looks up a named interface and reports its IPv4/MAC/CIDR.
func GetInterface(name string) (*models.Interface, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scanerrors.ErrInterfaceNotFound, err)
	}

	addrs, err := ifi.Addrs()
	if err != nil {
		return nil, fmt.Errorf("reading addresses for %s: %w", name, err)
	}

	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		v4 := ipnet.IP.To4()
		if v4 == nil {
			continue
		}

		return &models.Interface{
			Name: ifi.Name,
			IPv4: v4,
			MAC:  ifi.HardwareAddr,
			CIDR: &net.IPNet{IP: v4.Mask(ipnet.Mask), Mask: ipnet.Mask},
		}, nil
	}

	return nil, scanerrors.ErrInterfaceNoIPv4
}

// GetAvailableEphemeralPort binds an ephemeral TCP port and immediately
// releases it. It is a hint for a scanner's source port, not a
// reservation — nothing stops another process claiming it before the
// caller uses it.
func GetAvailableEphemeralPort() (uint16, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("reserving ephemeral port: %w", err)
	}
	defer l.Close()

	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected listener address type %T", l.Addr())
	}

	return uint16(addr.Port), nil //nolint:gosec // TCP ports fit in uint16 by construction
}

// defaultRouteIP returns the local IPv4 address the kernel would use to
// reach the public internet, without sending any traffic: dialing UDP
// never puts a packet on the wire, it only triggers route resolution.
func defaultRouteIP() (net.IP, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unexpected local address type %T", conn.LocalAddr())
	}

	return addr.IP.To4(), nil
}

// ifaceOwnsIP reports whether candidate carries routedIP, returning the
// IPv4 address and the CIDR block it belongs to.
func ifaceOwnsIP(candidate *net.Interface, routedIP net.IP) (net.IP, *net.IPNet, bool) {
	addrs, err := candidate.Addrs()
	if err != nil {
		return nil, nil, false
	}

	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		v4 := ipnet.IP.To4()
		if v4 == nil || !v4.Equal(routedIP) {
			continue
		}

		return v4, &net.IPNet{IP: v4.Mask(ipnet.Mask), Mask: ipnet.Mask}, true
	}

	return nil, nil, false
}
