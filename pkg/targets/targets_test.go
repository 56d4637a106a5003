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

package targets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIPTargetsSingle(t *testing.T) {
	tg, err := NewIPTargets([]string{"10.0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, 1, tg.Len())
	assert.Equal(t, "10.0.0.5", tg.All()[0].String())
}

func TestNewIPTargetsRange(t *testing.T) {
	tg, err := NewIPTargets([]string{"10.0.0.1-10.0.0.3"})
	require.NoError(t, err)
	require.Equal(t, 3, tg.Len())

	got := make([]string, 0, 3)
	for _, ip := range tg.All() {
		got = append(got, ip.String())
	}

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, got)
}

func TestNewIPTargetsRangeSingleValue(t *testing.T) {
	tg, err := NewIPTargets([]string{"10.0.0.7-10.0.0.7"})
	require.NoError(t, err)
	assert.Equal(t, 1, tg.Len())
}

func TestNewIPTargetsRangeBadOrder(t *testing.T) {
	_, err := NewIPTargets([]string{"10.0.0.9-10.0.0.1"})
	require.Error(t, err)
}

func TestNewIPTargetsCIDR(t *testing.T) {
	tg, err := NewIPTargets([]string{"10.0.0.0/30"})
	require.NoError(t, err)
	// /30 includes network and broadcast: .0, .1, .2, .3
	assert.Equal(t, 4, tg.Len())
}

func TestNewIPTargetsCIDRSlash32(t *testing.T) {
	tg, err := NewIPTargets([]string{"10.0.0.42/32"})
	require.NoError(t, err)
	require.Equal(t, 1, tg.Len())
	assert.Equal(t, "10.0.0.42", tg.All()[0].String())
}

func TestNewIPTargetsDedupeAcrossSpecs(t *testing.T) {
	tg, err := NewIPTargets([]string{"10.0.0.0/30", "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, 4, tg.Len())
}

func TestNewIPTargetsBadToken(t *testing.T) {
	_, err := NewIPTargets([]string{"not-an-ip"})
	require.Error(t, err)
}

func TestNewIPTargetsAdversarialInputDoesNotPanic(t *testing.T) {
	inputs := []string{
		"", "/", "-", "999.999.999.999", "10.0.0.1/99", "a-b", "10.0.0.1-",
		"-10.0.0.1", "10.0.0.1/-1", "::1", "10.0.0.1/255",
	}

	for _, in := range inputs {
		_, _ = NewIPTargets([]string{in})
	}
}

func TestNewPortTargetsSingle(t *testing.T) {
	tg, err := NewPortTargets([]string{"22"})
	require.NoError(t, err)
	assert.Equal(t, []uint16{22}, tg.All())
}

func TestNewPortTargetsRange(t *testing.T) {
	tg, err := NewPortTargets([]string{"20-22"})
	require.NoError(t, err)
	assert.Equal(t, []uint16{20, 21, 22}, tg.All())
}

func TestNewPortTargetsZeroRejected(t *testing.T) {
	_, err := NewPortTargets([]string{"0"})
	require.Error(t, err)
}

func TestNewPortTargetsTooLargeRejected(t *testing.T) {
	_, err := NewPortTargets([]string{"65536"})
	require.Error(t, err)
}

func TestNewPortTargetsMaxValue(t *testing.T) {
	tg, err := NewPortTargets([]string{"65535"})
	require.NoError(t, err)
	assert.Equal(t, []uint16{65535}, tg.All())
}

func TestNewPortTargetsDedupe(t *testing.T) {
	tg, err := NewPortTargets([]string{"80", "80-82", "82"})
	require.NoError(t, err)
	assert.Equal(t, []uint16{80, 81, 82}, tg.All())
}

func TestNewPortTargetsAdversarialInputDoesNotPanic(t *testing.T) {
	inputs := []string{"", "-", "a-b", "80-", "-80", "1-2-3", "99999999999999999999"}
	for _, in := range inputs {
		_, _ = NewPortTargets([]string{in})
	}
}
