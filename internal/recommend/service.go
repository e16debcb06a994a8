// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
)

// ServiceConfig holds serving-path parameters.
type ServiceConfig struct {
	// MaxCandidates caps the candidate set evaluated per personalized
	// query. Candidates are taken in ascending item-ID order, so the cap is
	// deterministic.
	MaxCandidates int
}

// DefaultServiceConfig returns default serving parameters.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{MaxCandidates: 500}
}

// Service answers recommendation queries from immutable, offline-built
// artifacts. It holds no mutable state: all fields are frozen at
// construction, so concurrent queries need no coordination.
type Service struct {
	index   *NeighborIndex
	model   *FactorModel
	pop     *PopularityRanking
	catalog *Catalog

	// ratedBy maps user ID to the set of items the user has rated.
	ratedBy map[string]map[string]struct{}

	// candidateIDs is the sorted list of distinct rated item IDs, the
	// candidate universe for personalized queries.
	candidateIDs []string

	cfg    ServiceConfig
	logger zerolog.Logger
}

// NewService builds a Service from loaded artifacts and the rating store.
// All inputs must be fully built; none are mutated afterwards.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(index *NeighborIndex, model *FactorModel, pop *PopularityRanking,
	ratings []Rating, cfg ServiceConfig, logger zerolog.Logger) (*Service, error) {
	if index == nil || model == nil || pop == nil {
		return nil, errors.New("nil artifact")
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultServiceConfig().MaxCandidates
	}

	s := &Service{
		index:   index,
		model:   model,
		pop:     pop,
		catalog: CatalogFromTitles(index.Titles, logger),
		ratedBy: make(map[string]map[string]struct{}),
		cfg:     cfg,
		logger:  logger.With().Str("component", "service").Logger(),
	}

	itemSet := make(map[string]struct{})
	for _, r := range ratings {
		if s.ratedBy[r.UserID] == nil {
			s.ratedBy[r.UserID] = make(map[string]struct{})
		}
		s.ratedBy[r.UserID][r.ItemID] = struct{}{}
		itemSet[r.ItemID] = struct{}{}
	}

	s.candidateIDs = make([]string, 0, len(itemSet))
	for id := range itemSet {
		s.candidateIDs = append(s.candidateIDs, id)
	}
	sort.Strings(s.candidateIDs)

	s.logger.Info().
		Int("users", len(s.ratedBy)).
		Int("items", len(s.candidateIDs)).
		Int("indexed_items", len(index.Neighbors)).
		Msg("recommendation service ready")

	return s, nil
}

// RecommendSimilar returns up to n items similar to the given title. An
// unknown title or an item without similarity data falls back to the
// popularity ranking; the result's Source field distinguishes the two.
func (s *Service) RecommendSimilar(title string, n int) SimilarResult {
	if n <= 0 {
		return SimilarResult{Source: SourceSimilarity, Items: []Recommendation{}}
	}

	itemID, ok := s.catalog.IDOf(title)
	if ok {
		neighbors, found := s.index.NeighborsOf(itemID)
		if found && len(neighbors) > 0 {
			return SimilarResult{
				Source: SourceSimilarity,
				Items:  s.neighborRecommendations(itemID, neighbors, n),
			}
		}
	}

	s.logger.Debug().
		Str("title", title).
		Bool("known_title", ok).
		Msg("no similarity data, falling back to popularity")

	return SimilarResult{Source: SourcePopularity, Items: s.popularRecommendations(n)}
}

// neighborRecommendations converts a neighbor list to titled results,
// deduplicated by item ID.
func (s *Service) neighborRecommendations(selfID string, neighbors []Neighbor, n int) []Recommendation {
	items := make([]Recommendation, 0, n)
	seen := map[string]struct{}{selfID: {}}

	for _, nb := range neighbors {
		if len(items) == n {
			break
		}
		if _, dup := seen[nb.ItemID]; dup {
			continue
		}
		seen[nb.ItemID] = struct{}{}
		items = append(items, Recommendation{
			Title: s.catalog.TitleOf(nb.ItemID),
			Score: round(nb.Score, 3),
		})
	}

	return items
}

// popularRecommendations returns the popularity top-n with display mean
// ratings as scores.
func (s *Service) popularRecommendations(n int) []Recommendation {
	top := s.pop.TopN(n)
	items := make([]Recommendation, 0, len(top))
	for _, e := range top {
		items = append(items, Recommendation{
			Title: s.catalog.TitleOf(e.ItemID),
			Score: round(e.Mean, 2),
		})
	}
	return items
}

// RecommendForUser returns up to n items the user has not rated, ranked by
// predicted rating. It returns ErrUnknownUser for users the model was not
// trained on. A known user with nothing left to rate gets an empty list.
func (s *Service) RecommendForUser(userID string, n int) ([]UserRecommendation, error) {
	if !s.model.KnowsUser(userID) {
		return nil, fmt.Errorf("user %q: %w", userID, ErrUnknownUser)
	}
	if n <= 0 {
		return []UserRecommendation{}, nil
	}

	rated := s.ratedBy[userID]

	type prediction struct {
		itemID string
		est    float64
	}
	preds := make([]prediction, 0, s.cfg.MaxCandidates)

	evaluated := 0
	for _, itemID := range s.candidateIDs {
		if evaluated == s.cfg.MaxCandidates {
			break
		}
		if _, already := rated[itemID]; already {
			continue
		}
		evaluated++

		est, err := s.model.Predict(userID, itemID)
		if err != nil {
			// Items only present in the held-out split are unknown to the
			// model; they cannot be scored.
			continue
		}
		preds = append(preds, prediction{itemID: itemID, est: est})
	}

	sort.Slice(preds, func(i, j int) bool {
		if preds[i].est != preds[j].est {
			return preds[i].est > preds[j].est
		}
		return preds[i].itemID < preds[j].itemID
	})

	if len(preds) > n {
		preds = preds[:n]
	}

	out := make([]UserRecommendation, 0, len(preds))
	for _, p := range preds {
		out = append(out, UserRecommendation{
			Title:           s.catalog.TitleOf(p.itemID),
			PredictedRating: round(p.est, 3),
		})
	}

	return out, nil
}

// AvailableItems returns the sorted titles of items that have similarity
// data, the valid inputs for RecommendSimilar.
func (s *Service) AvailableItems() []string {
	return s.index.ItemTitles()
}

// TopPopular returns the popularity top-n as (title, mean rating) pairs.
func (s *Service) TopPopular(n int) []Recommendation {
	return s.popularRecommendations(n)
}

// round rounds v to the given number of decimal places for display.
func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
