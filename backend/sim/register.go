// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"github.com/gogpu/framecore/backend"
	"github.com/gogpu/framecore/driver"
)

// The simulator has no debug layer; backend.Options are ignored.
func init() {
	backend.Register(backend.BackendSim, func(backend.Options) (driver.Instance, error) {
		return NewInstance(), nil
	})
}
