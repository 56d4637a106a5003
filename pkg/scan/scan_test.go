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

package scan

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanscango/lanscan/pkg/models"
	"github.com/lanscango/lanscan/pkg/targets"
	"github.com/lanscango/lanscan/pkg/wire"
)

var (
	testScannerMAC = net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	testScannerIP  = net.IPv4(192, 168, 1, 10).To4()
)

func testInterface() *models.Interface {
	_, cidr, _ := net.ParseCIDR("192.168.1.0/24")
	return &models.Interface{Name: "eth-test", IPv4: testScannerIP, MAC: testScannerMAC, CIDR: cidr}
}

func drainMessages(t *testing.T, h *Handle, timeout time.Duration) []models.ScanMessage {
	t.Helper()

	var out []models.ScanMessage

	deadline := time.After(timeout)

	for {
		select {
		case msg, ok := <-h.Messages():
			if !ok {
				return out
			}

			out = append(out, msg)
		case <-deadline:
			t.Fatalf("timed out draining messages, got %d so far", len(out))
		}
	}
}

func injectARPReply(fw *wire.FakeWire, senderMAC net.HardwareAddr, senderIP net.IP, targetIP net.IP) {
	eth := layers.Ethernet{SrcMAC: senderMAC, DstMAC: testScannerMAC, EthernetType: layers.EthernetTypeARP}
	arp := layers.ARP{
		AddrType: layers.LinkTypeEthernet, Protocol: layers.EthernetTypeIPv4,
		HwAddressSize: 6, ProtAddressSize: 4, Operation: layers.ARPReply,
		SourceHwAddress: senderMAC, SourceProtAddress: senderIP.To4(),
		DstHwAddress: testScannerMAC, DstProtAddress: targetIP.To4(),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		panic(err)
	}

	frame := make([]byte, len(buf.Bytes()))
	copy(frame, buf.Bytes())
	fw.Inject(frame)
}

func injectTCPReply(fw *wire.FakeWire, srcMAC net.HardwareAddr, srcIP net.IP, srcPort uint16, dstPort uint16, synAck bool, rst bool) {
	eth := layers.Ethernet{SrcMAC: srcMAC, DstMAC: testScannerMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := layers.IPv4{
		Version: 4, IHL: 5, TTL: 64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    srcIP.To4(), DstIP: testScannerIP,
	}
	tcp := layers.TCP{
		SrcPort: layers.TCPPort(srcPort), DstPort: layers.TCPPort(dstPort),
		Seq: 500, Ack: 1, Window: 1024,
		SYN: synAck, ACK: synAck || rst, RST: rst,
	}

	if err := tcp.SetNetworkLayerForChecksum(&ip); err != nil {
		panic(err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

	if err := gopacket.SerializeLayers(buf, opts, &eth, &ip, &tcp); err != nil {
		panic(err)
	}

	frame := make([]byte, len(buf.Bytes()))
	copy(frame, buf.Bytes())
	fw.Inject(frame)
}

func findKind(msgs []models.ScanMessage, kind models.MessageKind) []models.ScanMessage {
	var out []models.ScanMessage

	for _, m := range msgs {
		if m.Kind == kind {
			out = append(out, m)
		}
	}

	return out
}

func TestARPScannerSingleHost(t *testing.T) {
	fw := wire.NewFakeWire()
	tg, err := targets.NewIPTargets([]string{"10.0.0.5"})
	require.NoError(t, err)

	s, err := NewARPScanner(ARPConfig{
		Interface:   testInterface(),
		Wire:        fw.Pair(),
		Targets:     tg,
		IdleTimeout: 150 * time.Millisecond,
	})
	require.NoError(t, err)

	h, err := s.Scan(context.Background())
	require.NoError(t, err)

	injectARPReply(fw, net.HardwareAddr{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x05}, net.IPv4(10, 0, 0, 5), testScannerIP)

	msgs := drainMessages(t, h, 2*time.Second)
	require.NoError(t, h.Wait())

	infos := findKind(msgs, models.KindInfo)
	require.Len(t, infos, 1)
	assert.Equal(t, "10.0.0.5", infos[0].InfoIP)

	results := findKind(msgs, models.KindARPResult)
	require.Len(t, results, 1)
	assert.Equal(t, "10.0.0.5", results[0].ARPResult.IP)
	assert.Equal(t, "aa:bb:cc:00:00:05", results[0].ARPResult.MAC)
	assert.False(t, results[0].ARPResult.IsCurrentHost)

	last := msgs[len(msgs)-1]
	assert.Equal(t, models.KindDone, last.Kind)
}

func TestARPScannerCurrentHostSynthesis(t *testing.T) {
	fw := wire.NewFakeWire()
	tg, err := targets.NewIPTargets([]string{"192.168.1.10"})
	require.NoError(t, err)

	s, err := NewARPScanner(ARPConfig{
		Interface:   testInterface(),
		Wire:        fw.Pair(),
		Targets:     tg,
		IdleTimeout: 150 * time.Millisecond,
	})
	require.NoError(t, err)

	h, err := s.Scan(context.Background())
	require.NoError(t, err)

	msgs := drainMessages(t, h, 2*time.Second)
	require.NoError(t, h.Wait())

	results := findKind(msgs, models.KindARPResult)
	require.Len(t, results, 1)
	assert.True(t, results[0].ARPResult.IsCurrentHost)
	assert.Equal(t, "192.168.1.10", results[0].ARPResult.IP)
}

func TestARPScannerDedupeByMAC(t *testing.T) {
	fw := wire.NewFakeWire()
	tg, err := targets.NewIPTargets([]string{"10.0.0.1-10.0.0.2"})
	require.NoError(t, err)

	s, err := NewARPScanner(ARPConfig{
		Interface:   testInterface(),
		Wire:        fw.Pair(),
		Targets:     tg,
		IdleTimeout: 150 * time.Millisecond,
	})
	require.NoError(t, err)

	h, err := s.Scan(context.Background())
	require.NoError(t, err)

	mac := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x09}
	injectARPReply(fw, mac, net.IPv4(10, 0, 0, 1), testScannerIP)
	injectARPReply(fw, mac, net.IPv4(10, 0, 0, 2), testScannerIP)

	msgs := drainMessages(t, h, 2*time.Second)
	require.NoError(t, h.Wait())

	results := findKind(msgs, models.KindARPResult)
	assert.Len(t, results, 1)
}

func TestSYNScannerOpenAndClosed(t *testing.T) {
	fw := wire.NewFakeWire()
	ports, err := targets.NewPortTargets([]string{"22", "81"})
	require.NoError(t, err)

	device := models.Device{IP: "10.0.0.5", MAC: "aa:bb:cc:00:00:05"}

	s, err := NewSYNScanner(SYNConfig{
		Interface:   testInterface(),
		Wire:        fw.Pair(),
		Devices:     []models.Device{device},
		Ports:       ports,
		SourcePort:  40000,
		IdleTimeout: 150 * time.Millisecond,
	})
	require.NoError(t, err)

	h, err := s.Scan(context.Background())
	require.NoError(t, err)

	deviceMAC := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x05}
	deviceIP := net.IPv4(10, 0, 0, 5)

	injectTCPReply(fw, deviceMAC, deviceIP, 22, 40000, true, false)
	injectTCPReply(fw, deviceMAC, deviceIP, 81, 40000, false, true)

	msgs := drainMessages(t, h, 2*time.Second)
	require.NoError(t, h.Wait())

	infos := findKind(msgs, models.KindInfo)
	require.Len(t, infos, 1)
	assert.Equal(t, "10.0.0.5", infos[0].InfoIP)

	results := findKind(msgs, models.KindSYNResult)
	require.Len(t, results, 1)
	assert.EqualValues(t, 22, results[0].SYNResult.Port.ID)
	assert.Equal(t, "ssh", results[0].SYNResult.Port.Service)

	sent := fw.SentFrames()
	require.NotEmpty(t, sent)

	sawRST := false

	for _, frame := range sent {
		pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
		if tcpLayer, ok := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP); ok && tcpLayer.RST {
			sawRST = true
		}
	}

	assert.True(t, sawRST, "expected scanner to transmit a RST in response to SYN|ACK")
}

func TestSYNScannerNoResponse(t *testing.T) {
	fw := wire.NewFakeWire()
	ports, err := targets.NewPortTargets([]string{"1000"})
	require.NoError(t, err)

	device := models.Device{IP: "10.0.0.5", MAC: "aa:bb:cc:00:00:05"}

	s, err := NewSYNScanner(SYNConfig{
		Interface:   testInterface(),
		Wire:        fw.Pair(),
		Devices:     []models.Device{device},
		Ports:       ports,
		SourcePort:  40000,
		IdleTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	h, err := s.Scan(context.Background())
	require.NoError(t, err)

	msgs := drainMessages(t, h, 2*time.Second)
	require.NoError(t, h.Wait())

	results := findKind(msgs, models.KindSYNResult)
	assert.Empty(t, results)

	last := msgs[len(msgs)-1]
	assert.Equal(t, models.KindDone, last.Kind)
}

func TestFullScannerComposition(t *testing.T) {
	fw := wire.NewFakeWire()
	ipTargets, err := targets.NewIPTargets([]string{"10.0.0.0/30"})
	require.NoError(t, err)

	ports, err := targets.NewPortTargets([]string{"80"})
	require.NoError(t, err)

	s, err := NewFullScanner(FullConfig{
		Interface:   testInterface(),
		Wire:        fw.Pair(),
		IPTargets:   ipTargets,
		Ports:       ports,
		SourcePort:  40000,
		IdleTimeout: 150 * time.Millisecond,
	})
	require.NoError(t, err)

	h, err := s.Scan(context.Background())
	require.NoError(t, err)

	mac1 := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x01}
	mac2 := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x02}

	injectARPReply(fw, mac1, net.IPv4(10, 0, 0, 1), testScannerIP)
	injectARPReply(fw, mac2, net.IPv4(10, 0, 0, 2), testScannerIP)

	// Wait until the SYN phase has announced its first device before
	// injecting the TCP reply: the full scanner serializes ARP then SYN,
	// and a frame injected while the ARP reader is still polling is
	// consumed and discarded by it. The ARP phase emits one Info per
	// target (.0-.3), so the fifth Info comes from the SYN phase.
	var msgs []models.ScanMessage

	infoCount := 0
	synPhaseDeadline := time.After(3 * time.Second)

	for infoCount < 5 {
		select {
		case msg, ok := <-h.Messages():
			if !ok {
				t.Fatalf("message stream closed before the SYN phase started, got %d messages", len(msgs))
			}

			msgs = append(msgs, msg)

			if msg.Kind == models.KindInfo {
				infoCount++
			}
		case <-synPhaseDeadline:
			t.Fatalf("timed out waiting for the SYN phase, got %d messages so far", len(msgs))
		}
	}

	injectTCPReply(fw, mac1, net.IPv4(10, 0, 0, 1), 80, 40000, true, false)

	msgs = append(msgs, drainMessages(t, h, 3*time.Second)...)
	require.NoError(t, h.Wait())

	doneMsgs := findKind(msgs, models.KindDone)
	require.Len(t, doneMsgs, 1, "inner ARP Done must be suppressed; only the outer Done is forwarded")

	arpResults := findKind(msgs, models.KindARPResult)
	assert.Len(t, arpResults, 2)

	synResults := findKind(msgs, models.KindSYNResult)
	require.Len(t, synResults, 1)
	assert.Equal(t, "10.0.0.1", synResults[0].SYNResult.Device.IP)
	assert.EqualValues(t, 80, synResults[0].SYNResult.Port.ID)

	last := msgs[len(msgs)-1]
	assert.Equal(t, models.KindDone, last.Kind)
}
