// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package recommend contains the core recommendation data model and the
// serving-time Service.
//
// Three offline-built artifacts drive the system:
//
//   - NeighborIndex: per-item top-K most similar items by cosine similarity
//     over zero-filled rating vectors, persisted together with the item
//     catalog lookup.
//   - FactorModel: biased matrix factorization state (global bias, per-user
//     and per-item biases and factor vectors) trained on observed ratings
//     only.
//   - PopularityRanking: per-item mean/count aggregates with a
//     mean-times-count composite score, the fallback when personalization is
//     unavailable.
//
// The builders live in the algorithms subpackage; persistence in storage.
// A Service is constructed once at startup from loaded artifacts and is a
// stateless, lock-free function of them: artifacts are never mutated after
// load, so any number of queries may run concurrently.
//
// Unknown identifiers are typed outcomes, never silent defaults: unknown
// titles fall back to popularity with a distinguishable result source, and
// unknown users surface ErrUnknownUser.
package recommend
