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
	"sync"
	"time"
)

// FakeWire is an in-memory Sender+Reader pair for scanner tests. Frames
// pushed via Inject are delivered to the next Next() call; frames
// handed to Send are recorded for assertions, never actually
// transmitted. It is the Go analogue of a mocked datalink channel — the
// scanner under test cannot tell it apart from a real one.
type FakeWire struct {
	mu   sync.Mutex
	sent [][]byte

	incoming chan []byte
	closeCh  chan struct{}
	closeOne sync.Once
}

// NewFakeWire returns a ready-to-use FakeWire with room for a generous
// backlog of injected frames so test setup can inject before the
// scanner's reader goroutine starts polling.
func NewFakeWire() *FakeWire {
	return &FakeWire{
		incoming: make(chan []byte, 1024),
		closeCh:  make(chan struct{}),
	}
}

// Pair returns the Sender/Reader pair a scanner constructor expects.
func (f *FakeWire) Pair() Pair {
	return Pair{Sender: f, Reader: f}
}

// Send records frame for later inspection via SentFrames.
func (f *FakeWire) Send(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)

	f.mu.Lock()
	f.sent = append(f.sent, cp)
	f.mu.Unlock()

	return nil
}

// Next blocks for up to timeout waiting for an injected frame.
func (f *FakeWire) Next(timeout time.Duration) ([]byte, error) {
	select {
	case frame, ok := <-f.incoming:
		if !ok {
			return nil, nil
		}

		return frame, nil
	case <-f.closeCh:
		return nil, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

// Inject makes frame available to the next Next() call, as if it had
// just arrived on the wire.
func (f *FakeWire) Inject(frame []byte) {
	select {
	case f.incoming <- frame:
	case <-f.closeCh:
	}
}

// SentFrames returns a snapshot of every frame handed to Send, in order.
func (f *FakeWire) SentFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]byte, len(f.sent))
	copy(out, f.sent)

	return out
}

// Close unblocks any pending Next() calls. Idempotent.
func (f *FakeWire) Close() error {
	f.closeOne.Do(func() { close(f.closeCh) })
	return nil
}
