// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package algorithms implements the offline model builders.
//
// Each builder is a single-pass batch computation over the full rating
// store and returns an immutable artifact from the recommend package:
//
//   - BuildNeighborIndex: pairwise item cosine similarity over zero-filled
//     rating vectors, retaining the top-K neighbors per item. The pairwise
//     step is the dominant cost (O(I² × U)) and runs data-parallel across
//     item rows.
//   - TrainSVD: biased matrix factorization trained by SGD on observed
//     triples only, with a reproducible held-out evaluation split. Note the
//     deliberate asymmetry with the neighbor index: the factor model never
//     treats unobserved entries as zeros.
//   - BuildPopularity: per-item mean/count aggregates ranked by the
//     mean-times-count composite.
//
// Builders accept a context and stop early when it is canceled.
package algorithms

import "context"

// contextCancelled checks if the context has been canceled.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
