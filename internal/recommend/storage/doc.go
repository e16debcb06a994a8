// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package storage persists the offline-built recommendation artifacts.
//
// The trainer writes three artifacts per run: the neighbor index, the
// latent factor model, and the popularity ranking. Each is stored as a
// separately versioned file so the server can load the latest consistent
// set on startup and a bad training run can be rolled back by version.
//
// # Format
//
// Artifacts are gob-encoded, gzip-compressed, and wrapped with metadata
// carrying a SHA-256 checksum of the uncompressed payload:
//
//	filename: {artifact}_v{version}.gob.gz
//
// The checksum is verified on every load; a corrupted file is an error,
// never a silently truncated model.
//
// # Thread safety
//
// All Store operations are safe for concurrent use. Writes take an
// exclusive lock so two trainer runs cannot interleave versions.
package storage
