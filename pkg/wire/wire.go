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

// Package wire abstracts raw link-layer I/O behind a small, mockable
// capability set so the scanner never assumes real hardware.
//
//go:generate mockgen -destination=mock_wire.go -package=wire github.com/lanscango/lanscan/pkg/wire Sender,Reader
package wire

import (
	"context"
	"time"
)

// Sender transmits a single already-serialized L2 frame.
type Sender interface {
	Send(frame []byte) error
}

// Reader yields the next L2 frame seen on the wire, or nil on timeout.
// Implementations must return promptly after timeout elapses so a
// caller polling in a loop can check for cancellation between calls.
type Reader interface {
	Next(timeout time.Duration) ([]byte, error)
}

// Pair bundles the Sender/Reader handed to a scanner. Both halves must
// be safe for concurrent use from independent goroutines — the scanner
// sends SYNs from one goroutine and RSTs (in response to observed
// SYN-ACKs) from another.
type Pair struct {
	Sender Sender
	Reader Reader
}

// Close releases the underlying wire, if the concrete implementation
// needs to (e.g. a pcap handle). Safe to call on a Pair built from
// types that don't need closing.
func (p Pair) Close() error {
	if c, ok := p.Sender.(interface{ Close() error }); ok {
		return c.Close()
	}

	if c, ok := p.Reader.(interface{ Close() error }); ok {
		return c.Close()
	}

	return nil
}

// ReadLoop runs fn with frames pulled from r until ctx is cancelled or
// fn returns false, returning nil in both cases; an error from r.Next
// ends the loop and is returned. It is the shared "poll, check
// cancellation" idiom every scanner's reader goroutine follows.
func ReadLoop(ctx context.Context, r Reader, pollTimeout time.Duration, fn func(frame []byte) (keepGoing bool)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frame, err := r.Next(pollTimeout)
		if err != nil {
			return err
		}

		if frame == nil {
			continue // poll timeout, check cancellation again
		}

		if !fn(frame) {
			return nil
		}
	}
}
