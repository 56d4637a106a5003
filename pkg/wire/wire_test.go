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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFakeWireSendRecordsFrames(t *testing.T) {
	fw := NewFakeWire()
	require.NoError(t, fw.Send([]byte{1, 2, 3}))
	require.NoError(t, fw.Send([]byte{4, 5}))

	assert.Equal(t, [][]byte{{1, 2, 3}, {4, 5}}, fw.SentFrames())
}

func TestFakeWireInjectDelivers(t *testing.T) {
	fw := NewFakeWire()
	fw.Inject([]byte{9, 9})

	frame, err := fw.Next(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, frame)
}

func TestFakeWireNextTimesOut(t *testing.T) {
	fw := NewFakeWire()

	frame, err := fw.Next(10 * time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, frame)
}

func TestReadLoopStopsOnCancel(t *testing.T) {
	fw := NewFakeWire()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seen := 0
	err := ReadLoop(ctx, fw, 10*time.Millisecond, func([]byte) bool {
		seen++
		return true
	})

	require.NoError(t, err)
	assert.Equal(t, 0, seen)
}

func TestReadLoopDeliversFrames(t *testing.T) {
	fw := NewFakeWire()
	fw.Inject([]byte{1})
	fw.Inject([]byte{2})

	ctx, cancel := context.WithCancel(context.Background())

	var got [][]byte

	err := ReadLoop(ctx, fw, 10*time.Millisecond, func(frame []byte) bool {
		got = append(got, frame)
		if len(got) == 2 {
			cancel()
			return false
		}

		return true
	})

	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1}, {2}}, got)
}

func TestMockSenderSatisfiesInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewMockSender(ctrl)
	m.EXPECT().Send([]byte{1}).Return(nil)

	var s Sender = m
	require.NoError(t, s.Send([]byte{1}))
}
