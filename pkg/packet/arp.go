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

// Package packet builds and parses the Ethernet+ARP and Ethernet+IPv4+TCP
// frames the scanning engine puts on the wire, using gopacket's layer
// serialization so checksums and lengths are computed the same way the
// rest of the Go networking ecosystem does it, rather than by
// hand-rolled struct packing.
package packet

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/lanscango/lanscan/pkg/scanerrors"
)

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

var serializeOpts = gopacket.SerializeOptions{
	FixLengths:       true,
	ComputeChecksums: true,
}

// BuildARPRequest serializes an Ethernet(14)+ARP broadcast request
// asking who has targetIP, sent from srcMAC/srcIP.
func BuildARPRequest(srcMAC net.HardwareAddr, srcIP net.IP, targetIP net.IP) ([]byte, error) {
	srcIP4 := srcIP.To4()
	targetIP4 := targetIP.To4()

	if srcIP4 == nil || targetIP4 == nil {
		return nil, fmt.Errorf("%w: BuildARPRequest: need IPv4 addresses", scanerrors.ErrPacketBuild)
	}

	eth := layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       broadcastMAC,
		EthernetType: layers.EthernetTypeARP,
	}

	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMAC,
		SourceProtAddress: srcIP4,
		DstHwAddress:      broadcastMAC,
		DstProtAddress:    targetIP4,
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, &eth, &arp); err != nil {
		return nil, fmt.Errorf("%w: %w", scanerrors.ErrPacketBuild, err)
	}

	return buf.Bytes(), nil
}

// ARPReply is the information extracted from a validated ARP reply.
type ARPReply struct {
	SenderMAC net.HardwareAddr
	SenderIP  net.IP
}

// ParseARPReply validates frame as an Ethernet+ARP reply addressed to
// scannerIP. Replies whose target protocol address doesn't match
// scannerIP return scanerrors.ErrWrongTarget so callers can
// distinguish "not ARP" from "ARP, but not for me".
func ParseARPReply(frame []byte, scannerIP net.IP) (*ARPReply, error) {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.NoCopy)

	arpLayer := pkt.Layer(layers.LayerTypeARP)
	if arpLayer == nil {
		return nil, scanerrors.ErrNotARP
	}

	arp, ok := arpLayer.(*layers.ARP)
	if !ok {
		return nil, scanerrors.ErrNotARP
	}

	if arp.Operation != layers.ARPReply {
		return nil, scanerrors.ErrNotARP
	}

	if arp.HwAddressSize != 6 || arp.ProtAddressSize != 4 {
		return nil, fmt.Errorf("%w: unexpected ARP address sizes", scanerrors.ErrShortFrame)
	}

	scanner4 := scannerIP.To4()
	if scanner4 == nil || !net.IP(arp.DstProtAddress).Equal(scanner4) {
		return nil, scanerrors.ErrWrongTarget
	}

	senderMAC := make(net.HardwareAddr, len(arp.SourceHwAddress))
	copy(senderMAC, arp.SourceHwAddress)

	senderIP := make(net.IP, len(arp.SourceProtAddress))
	copy(senderIP, arp.SourceProtAddress)

	return &ARPReply{SenderMAC: senderMAC, SenderIP: senderIP}, nil
}
