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

package enrich

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorForMACKnown(t *testing.T) {
	mac, err := net.ParseMAC("b8:27:eb:11:22:33")
	require.NoError(t, err)
	assert.Equal(t, "Raspberry Pi Foundation", VendorForMAC(mac))
}

func TestVendorForMACUnknown(t *testing.T) {
	mac, err := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, unknownVendor, VendorForMAC(mac))
}

func TestVendorForMACLocallyAdministered(t *testing.T) {
	// 0x02 in the first octet sets the locally-administered bit, even
	// though 02:00:00 happens to prefix a real registered OUI pattern
	// in spirit, it's not a vendor assignment.
	mac, err := net.ParseMAC("02:00:00:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, unknownVendor, VendorForMAC(mac))
}

func TestVendorForMACShortAddress(t *testing.T) {
	assert.Equal(t, unknownVendor, VendorForMAC(net.HardwareAddr{0x00, 0x01}))
}

func TestNormalizeMACLowercases(t *testing.T) {
	mac, err := net.ParseMAC("B8:27:EB:11:22:33")
	require.NoError(t, err)
	assert.Equal(t, "b8:27:eb:11:22:33", NormalizeMAC(mac))
}

type fakeResolver struct {
	mu    sync.Mutex
	names map[string]string
}

func (f *fakeResolver) LookupAddr(_ context.Context, addr string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name, ok := f.names[addr]
	if !ok {
		return nil, fmt.Errorf("no such host")
	}

	return []string{name}, nil
}

func TestHostnameLookupResolvesKnownAddrs(t *testing.T) {
	resolver := &fakeResolver{names: map[string]string{
		"192.168.1.1": "router.lan.",
		"192.168.1.2": "printer.lan.",
	}}

	hl := NewHostnameLookupWithResolver(resolver, 2)

	results := hl.Lookup(context.Background(), []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"})

	assert.Equal(t, "router.lan", results["192.168.1.1"])
	assert.Equal(t, "printer.lan", results["192.168.1.2"])
	assert.NotContains(t, results, "192.168.1.3")
}

func TestHostnameLookupHandlesEmptyInput(t *testing.T) {
	hl := NewHostnameLookupWithResolver(&fakeResolver{names: map[string]string{}}, 1)

	results := hl.Lookup(context.Background(), nil)
	assert.Empty(t, results)
}

func TestHostnameLookupRespectsContextCancellation(t *testing.T) {
	resolver := &fakeResolver{names: map[string]string{"192.168.1.1": "host.lan."}}
	hl := NewHostnameLookupWithResolver(resolver, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Should return promptly without blocking forever even though the
	// context is already canceled before any lookup starts.
	_ = hl.Lookup(ctx, []string{"192.168.1.1"})
}
