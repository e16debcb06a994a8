// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package algorithms

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

// SimilarityConfig contains parameters for the neighbor index build.
type SimilarityConfig struct {
	// K is the number of neighbors retained per item.
	K int

	// NumWorkers is the number of parallel workers for the pairwise
	// similarity computation.
	NumWorkers int
}

// DefaultSimilarityConfig returns the default build configuration.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{
		K:          20,
		NumWorkers: 4,
	}
}

// BuildNeighborIndex computes the top-K item-neighborhood index from the
// full rating store.
//
// The rating matrix is zero-filled: a missing (user, item) cell contributes
// 0 to the item vector, so cosine similarity systematically discounts pairs
// with few co-ratings. This is intentional and must not be replaced with a
// mean-centered or missing-aware variant. Duplicate (user, item) ratings
// are resolved last-write-wins.
//
// Items whose vector has zero norm get an empty neighbor list; callers
// treat that as "no similarity data", not an error.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func BuildNeighborIndex(ctx context.Context, ratings []recommend.Rating,
	catalog *recommend.Catalog, cfg SimilarityConfig, logger zerolog.Logger) (*recommend.NeighborIndex, error) {
	if len(ratings) == 0 {
		return nil, recommend.ErrNoRatings
	}
	if cfg.K <= 0 {
		cfg.K = 20
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}

	logger = logger.With().Str("component", "similarity").Logger()

	// Index users and items in first-appearance order. Item index order is
	// the tie-break for equal similarity scores.
	userPos := make(map[string]int)
	itemPos := make(map[string]int)
	var itemIDs []string

	for _, r := range ratings {
		if _, ok := userPos[r.UserID]; !ok {
			userPos[r.UserID] = len(userPos)
		}
		if _, ok := itemPos[r.ItemID]; !ok {
			itemPos[r.ItemID] = len(itemIDs)
			itemIDs = append(itemIDs, r.ItemID)
		}
	}

	numUsers := len(userPos)
	numItems := len(itemIDs)

	// Item×user matrix, zero-filled. Last write wins on duplicates.
	vectors := make([][]float64, numItems)
	for i := range vectors {
		vectors[i] = make([]float64, numUsers)
	}
	for _, r := range ratings {
		vectors[itemPos[r.ItemID]][userPos[r.UserID]] = r.Score
	}

	norms := make([]float64, numItems)
	for i, vec := range vectors {
		var sq float64
		for _, v := range vec {
			sq += v * v
		}
		norms[i] = math.Sqrt(sq)
	}

	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	logger.Info().
		Int("items", numItems).
		Int("users", numUsers).
		Int("k", cfg.K).
		Int("workers", cfg.NumWorkers).
		Msg("computing pairwise item similarities")

	// Pairwise similarity, partitioned across item rows. Workers share no
	// mutable state beyond the result map.
	neighbors := make(map[string][]recommend.Neighbor, numItems)

	var wg sync.WaitGroup
	var mu sync.Mutex
	chunkSize := (numItems + cfg.NumWorkers - 1) / cfg.NumWorkers

	for w := 0; w < cfg.NumWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > numItems {
			end = numItems
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(iStart, iEnd int) {
			defer wg.Done()

			for i := iStart; i < iEnd; i++ {
				if contextCancelled(ctx) {
					return
				}

				row := topNeighbors(i, vectors, norms, itemIDs, cfg.K)

				mu.Lock()
				neighbors[itemIDs[i]] = row
				mu.Unlock()
			}
		}(start, end)
	}

	wg.Wait()

	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	return &recommend.NeighborIndex{
		K:         cfg.K,
		Neighbors: neighbors,
		Titles:    catalog.Titles(),
	}, nil
}

// topNeighbors computes the K most similar items to item i, excluding i
// itself, sorted by descending similarity with ties broken by original
// item index order.
func topNeighbors(i int, vectors [][]float64, norms []float64, itemIDs []string, k int) []recommend.Neighbor {
	if norms[i] == 0 {
		return []recommend.Neighbor{}
	}

	scored := make([]recommend.Neighbor, 0, len(itemIDs)-1)
	for j := range itemIDs {
		if j == i {
			continue
		}
		scored = append(scored, recommend.Neighbor{
			ItemID: itemIDs[j],
			Score:  cosine(vectors[i], vectors[j], norms[i], norms[j]),
		})
	}

	// Candidates are appended in index order, so a stable sort preserves
	// that order among equal scores.
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// cosine computes the cosine similarity of two equal-length vectors with
// precomputed norms. Similarity is 0 if either norm is 0.
func cosine(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}

	var dot float64
	for u := range a {
		dot += a[u] * b[u]
	}
	return dot / (normA * normB)
}
