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

// Package enrich adds vendor and hostname metadata to discovered
// devices. Vendor lookup is a static OUI table searched with
// sort.Search rather than a map, since the table is read-only and
// binary search over a sorted slice avoids a map allocation for
// something never mutated after init.
package enrich

import (
	"net"
	"sort"
	"strings"
)

type ouiEntry struct {
	prefix uint32 // top 24 bits of a MAC address, in the low 24 bits
	vendor string
}

// ouiTable is sorted by prefix ascending so VendorForMAC can binary
// search it. A handful of real IEEE-assigned OUI blocks are seeded here
// as representative coverage; a production deployment would load this
// from the periodically-published IEEE OUI registry instead of
// hardcoding it.
var ouiTable = []ouiEntry{
	{0x000C29, "VMware, Inc."},
	{0x001018, "Broadcom"},
	{0x0016B9, "MSI"},
	{0x001B63, "Apple, Inc."},
	{0x002522, "Apple, Inc."},
	{0x0050F2, "Microsoft Corp."},
	{0x005056, "VMware, Inc."},
	{0x00904C, "Epigram, Inc."},
	{0x080027, "PCS Systemtechnik GmbH (VirtualBox)"},
	{0x0C8BFD, "Apple, Inc."},
	{0x18A905, "Apple, Inc."},
	{0x1C1B0D, "Apple, Inc."},
	{0x28CFE9, "Apple, Inc."},
	{0x3C5AB4, "Google, Inc."},
	{0x44D9E7, "Espressif Inc."},
	{0x485B39, "Espressif Inc."},
	{0x4C3275, "Espressif Inc."},
	{0x525400, "QEMU"},
	{0x5C514F, "Raspberry Pi Trading Ltd"},
	{0x94DE80, "Espressif Inc."},
	{0xB827EB, "Raspberry Pi Foundation"},
	{0xD83ADD, "Apple, Inc."},
	{0xDCA632, "Raspberry Pi Trading Ltd"},
	{0xF4F5D8, "Google, Inc."},
	{0xFCFBFB, "Cisco Systems, Inc."},
}

func init() {
	sort.Slice(ouiTable, func(i, j int) bool { return ouiTable[i].prefix < ouiTable[j].prefix })
}

// unknownVendor is returned for MAC addresses whose OUI isn't in the
// table, and for locally-administered (randomized) addresses, which
// have no registered manufacturer by construction. Per the device
// model, an unresolved vendor is the empty string, not a placeholder.
const unknownVendor = ""

// VendorForMAC returns the registered manufacturer name for mac's OUI,
// or unknownVendor if it isn't recognized or is locally administered.
func VendorForMAC(mac net.HardwareAddr) string {
	if len(mac) < 3 {
		return unknownVendor
	}

	// The second-least-significant bit of the first octet is the
	// locally-administered bit (IEEE 802-2014 §8.2.2); such addresses
	// are not drawn from any vendor's registered OUI block.
	if mac[0]&0x02 != 0 {
		return unknownVendor
	}

	prefix := uint32(mac[0])<<16 | uint32(mac[1])<<8 | uint32(mac[2])

	i := sort.Search(len(ouiTable), func(i int) bool { return ouiTable[i].prefix >= prefix })
	if i < len(ouiTable) && ouiTable[i].prefix == prefix {
		return ouiTable[i].vendor
	}

	return unknownVendor
}

// NormalizeMAC renders mac in the lower-case colon-separated form used
// throughout models.Device, regardless of how net.HardwareAddr.String
// happens to format it.
func NormalizeMAC(mac net.HardwareAddr) string {
	return strings.ToLower(mac.String())
}
