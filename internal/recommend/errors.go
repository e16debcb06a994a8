// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import "errors"

// Sentinel errors for typed query outcomes. Cold-start conditions are
// explicit results, never silently-computed defaults.
var (
	// ErrUnknownUser indicates the user was not seen during model training.
	ErrUnknownUser = errors.New("user not known to the model")

	// ErrUnknownItem indicates the item was not seen during model training.
	ErrUnknownItem = errors.New("item not known to the model")

	// ErrNoRatings indicates a model build was attempted on an empty
	// rating store.
	ErrNoRatings = errors.New("no ratings available")
)
