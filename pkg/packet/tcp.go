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

package packet

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/lanscango/lanscan/pkg/scanerrors"
)

// SYNSpec describes one half-open probe.
type SYNSpec struct {
	SrcMAC  net.HardwareAddr
	DstMAC  net.HardwareAddr
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	DstPort uint16
	Seq     uint32
	Ack     uint32
}

// BuildSYN serializes an Ethernet+IPv4+TCP frame carrying a single SYN
// segment, with no payload, framed at the link layer rather than built
// over a raw IP_HDRINCL socket.
func BuildSYN(spec SYNSpec) ([]byte, error) {
	return buildTCP(spec, func(tcp *layers.TCP) {
		tcp.SYN = true
	})
}

// BuildRST serializes a segment with only the RST flag set, closing out
// a half-open connection after a SYN|ACK reply. Callers set spec.Seq to
// the reply's acknowledgment number and spec.Ack to the reply's
// sequence number plus one.
func BuildRST(spec SYNSpec) ([]byte, error) {
	return buildTCP(spec, func(tcp *layers.TCP) {
		tcp.RST = true
	})
}

func buildTCP(spec SYNSpec, setFlags func(*layers.TCP)) ([]byte, error) {
	srcIP4 := spec.SrcIP.To4()
	dstIP4 := spec.DstIP.To4()

	if srcIP4 == nil || dstIP4 == nil {
		return nil, fmt.Errorf("%w: buildTCP: need IPv4 addresses", scanerrors.ErrPacketBuild)
	}

	eth := layers.Ethernet{
		SrcMAC:       spec.SrcMAC,
		DstMAC:       spec.DstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}

	ip := layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Id:       uint16(spec.Seq),
		Protocol: layers.IPProtocolTCP,
		SrcIP:    srcIP4,
		DstIP:    dstIP4,
	}

	tcp := layers.TCP{
		SrcPort: layers.TCPPort(spec.SrcPort),
		DstPort: layers.TCPPort(spec.DstPort),
		Seq:     spec.Seq,
		Ack:     spec.Ack,
		Window:  1024,
	}
	setFlags(&tcp)

	if err := tcp.SetNetworkLayerForChecksum(&ip); err != nil {
		return nil, fmt.Errorf("%w: %w", scanerrors.ErrPacketBuild, err)
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, &eth, &ip, &tcp); err != nil {
		return nil, fmt.Errorf("%w: %w", scanerrors.ErrPacketBuild, err)
	}

	return buf.Bytes(), nil
}

// ResponseKind classifies a parsed TCP reply to a SYN probe.
type ResponseKind int

const (
	// ResponseNone means the frame was not a TCP segment relevant to
	// any in-flight probe.
	ResponseNone ResponseKind = iota
	// ResponseOpen means SYN|ACK: the port is open.
	ResponseOpen
	// ResponseClosed means RST (no SYN): the port is closed.
	ResponseClosed
)

// SYNResponse is the information extracted from a classified TCP reply.
type SYNResponse struct {
	Kind    ResponseKind
	SrcIP   net.IP
	SrcMAC  net.HardwareAddr
	SrcPort uint16
	DstPort uint16
	Seq     uint32
	Ack     uint32
}

// ClassifyResponse parses frame as Ethernet+IPv4+TCP addressed to
// (scannerIP, scannerPort) and classifies it as an open (SYN|ACK) or
// closed (RST) response. Frames that aren't IPv4 TCP, or aren't
// addressed to the scanner, return scanerrors.ErrNotIPv4TCP /
// scanerrors.ErrWrongTarget respectively; a segment addressed to the
// scanner with neither SYN|ACK nor RST set also returns
// scanerrors.ErrNotIPv4TCP.
func ClassifyResponse(frame []byte, scannerIP net.IP, scannerPort uint16) (*SYNResponse, error) {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.NoCopy)

	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	tcpLayer := pkt.Layer(layers.LayerTypeTCP)

	if ipLayer == nil || tcpLayer == nil {
		return nil, scanerrors.ErrNotIPv4TCP
	}

	ip, ok := ipLayer.(*layers.IPv4)
	if !ok {
		return nil, scanerrors.ErrNotIPv4TCP
	}

	tcp, ok := tcpLayer.(*layers.TCP)
	if !ok {
		return nil, scanerrors.ErrNotIPv4TCP
	}

	scanner4 := scannerIP.To4()
	if scanner4 == nil || !ip.DstIP.Equal(scanner4) {
		return nil, scanerrors.ErrWrongTarget
	}

	if uint16(tcp.DstPort) != scannerPort {
		return nil, scanerrors.ErrWrongTarget
	}

	ethLayer := pkt.Layer(layers.LayerTypeEthernet)

	var srcMAC net.HardwareAddr
	if eth, ok := ethLayer.(*layers.Ethernet); ok {
		srcMAC = make(net.HardwareAddr, len(eth.SrcMAC))
		copy(srcMAC, eth.SrcMAC)
	}

	srcIP := make(net.IP, len(ip.SrcIP))
	copy(srcIP, ip.SrcIP)

	resp := &SYNResponse{
		SrcIP:   srcIP,
		SrcMAC:  srcMAC,
		SrcPort: uint16(tcp.SrcPort),
		DstPort: uint16(tcp.DstPort),
		Seq:     tcp.Seq,
		Ack:     tcp.Ack,
	}

	switch {
	case tcp.SYN && tcp.ACK:
		resp.Kind = ResponseOpen
	case tcp.RST:
		resp.Kind = ResponseClosed
	default:
		return nil, scanerrors.ErrNotIPv4TCP
	}

	return resp, nil
}
