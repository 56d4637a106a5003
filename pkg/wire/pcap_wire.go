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

package wire

import (
	"fmt"
	"time"

	"github.com/google/gopacket/pcap"

	"github.com/lanscango/lanscan/pkg/models"
	"github.com/lanscango/lanscan/pkg/scanerrors"
)

const (
	snapLen            = 65536
	defaultReadTimeout = 100 * time.Millisecond
)

// pcapWire is a Sender+Reader pair backed by a live libpcap handle
// bound to one interface in promiscuous mode. The same handle serves
// both Send and Next; libpcap handles are safe for concurrent use by
// one writer and one reader.
type pcapWire struct {
	handle *pcap.Handle
}

// OpenDefault opens a promiscuous pcap handle on ifc with the standard
// ~100ms poll timeout so a reader goroutine can check cancellation
// between reads.
func OpenDefault(ifc *models.Interface) (Pair, error) {
	return Open(ifc, defaultReadTimeout)
}

// Open opens a promiscuous pcap handle on ifc with a caller-chosen poll
// timeout. Failure to open (commonly insufficient privilege) surfaces
// as scanerrors.ErrPermissionDenied.
func Open(ifc *models.Interface, pollTimeout time.Duration) (Pair, error) {
	handle, err := pcap.OpenLive(ifc.Name, snapLen, true, pollTimeout)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: opening %s: %w", scanerrors.ErrPermissionDenied, ifc.Name, err)
	}

	w := &pcapWire{handle: handle}

	return Pair{Sender: w, Reader: w}, nil
}

func (w *pcapWire) Send(frame []byte) error {
	if err := w.handle.WritePacketData(frame); err != nil {
		return fmt.Errorf("%w: %w", scanerrors.ErrWireIO, err)
	}

	return nil
}

// Next returns the next frame captured on the handle. timeout is
// advisory here — the handle's own read timeout (set at Open time)
// governs how long a single ReadPacketData call can block; pcap.Handle
// does not support per-call timeouts, so Open should be called with the
// desired poll interval.
func (w *pcapWire) Next(_ time.Duration) ([]byte, error) {
	data, _, err := w.handle.ReadPacketData()
	if err == pcap.NextErrorTimeoutExpired {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", scanerrors.ErrWireIO, err)
	}

	// ReadPacketData hands back a buffer it may reuse on the next call;
	// copy it so callers can hold onto frames across goroutines safely.
	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

func (w *pcapWire) Close() error {
	w.handle.Close()
	return nil
}
