// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package config

import (
	"fmt"

	"github.com/deepspin/trackcore/internal/validation"
)

// validateStruct runs s through the shared validator singleton, nested
// structs included, and returns nil only when every field passes.
func validateStruct(s any) error {
	if err := validation.ValidateStruct(s); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
