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

// Package scan implements the ARP and SYN scanning engines that probe
// a shared local segment.
package scan

import (
	"sync/atomic"
	"time"
)

// idleTimer tracks how long it has been since the last reply was
// accepted and signals done once that silence exceeds its configured
// timeout. It is armed only after the sender has finished transmitting
// every probe, so a scan with a long send phase never times out
// mid-send.
type idleTimer struct {
	lastActivity atomic.Int64 // unix nanos
	armed        atomic.Bool
	timeout      time.Duration
	done         chan struct{}
	doneOnce     chan struct{}
}

func newIdleTimer(timeout time.Duration) *idleTimer {
	t := &idleTimer{
		timeout:  timeout,
		done:     make(chan struct{}),
		doneOnce: make(chan struct{}, 1),
	}
	t.lastActivity.Store(nowNano())

	return t
}

// nowNano is a seam over time.Now so the idle timer's clock reads are
// easy to reason about in tests without depending on wall-clock
// granularity.
func nowNano() int64 { return time.Now().UnixNano() }

// Reset records activity now, postponing the next possible firing.
func (t *idleTimer) Reset() {
	t.lastActivity.Store(nowNano())
}

// Arm allows the monitor to fire once timeout has elapsed since the
// last Reset. Call this once the sender goroutine has finished sending
// every probe.
func (t *idleTimer) Arm() {
	t.lastActivity.Store(nowNano())
	t.armed.Store(true)
}

// Done returns a channel that's closed once idleTimer has fired.
func (t *idleTimer) Done() <-chan struct{} {
	return t.done
}

// Run polls for idleness until either it fires or ctxDone closes,
// returning in both cases. Meant to run in its own goroutine.
func (t *idleTimer) Run(ctxDone <-chan struct{}, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctxDone:
			return
		case <-ticker.C:
			if !t.armed.Load() {
				continue
			}

			last := time.Unix(0, t.lastActivity.Load())
			if time.Since(last) >= t.timeout {
				t.fire()
				return
			}
		}
	}
}

func (t *idleTimer) fire() {
	select {
	case t.doneOnce <- struct{}{}:
		close(t.done)
	default:
	}
}
