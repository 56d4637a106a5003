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

package iface

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetAvailableEphemeralPort(t *testing.T) {
	port, err := GetAvailableEphemeralPort()
	require.NoError(t, err)
	require.NotZero(t, port)
}

func TestGetDefaultInterface(t *testing.T) {
	// This environment always has a loopback-only or a routed interface;
	// either a result or ErrInterfaceNotFound is acceptable, but the call
	// must never panic and must never return a half-populated Interface.
	ifc, err := GetDefaultInterface()
	if err != nil {
		return
	}

	require.NotEmpty(t, ifc.Name)
	require.NotNil(t, ifc.IPv4)
	require.NotNil(t, ifc.CIDR)
}

func TestGetInterfaceUnknownName(t *testing.T) {
	_, err := GetInterface("definitely-not-a-real-interface-0")
	require.Error(t, err)
}
