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
	"sync"

	"github.com/lanscango/lanscan/pkg/models"
)

// messageBufferSize sizes the result channel so a burst of replies
// doesn't force the reader to block on a slow consumer as often.
const messageBufferSize = 64

// Handle is the join handle returned by a scanner's Scan method.
// Messages delivers the scan's results; Wait blocks until the
// scanner's background goroutines have finished and returns any fatal
// error observed (e.g. a wire read failure), after Done has already
// been delivered on Messages.
type Handle struct {
	messages chan models.ScanMessage
	wg       sync.WaitGroup

	mu  sync.Mutex
	err error
}

// Messages returns the channel scan results are delivered on. The
// channel is closed after the terminal Done message.
func (h *Handle) Messages() <-chan models.ScanMessage {
	return h.messages
}

// Wait blocks until the scan's background work has completed and
// returns the fatal error observed, if any.
func (h *Handle) Wait() error {
	h.wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}

func (h *Handle) setErr(err error) {
	if err == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err == nil {
		h.err = err
	}
}

func newHandle() *Handle {
	return &Handle{messages: make(chan models.ScanMessage, messageBufferSize)}
}
