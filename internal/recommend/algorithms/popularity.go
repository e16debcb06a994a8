// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package algorithms

import (
	"sort"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

// BuildPopularity ranks every rated item by a composite of mean rating and
// rating count, so that a mediocre item with thousands of ratings can
// outrank a perfect item rated once. Ties on the composite break by item ID
// ascending, keeping the ranking deterministic.
func BuildPopularity(ratings []recommend.Rating) (*recommend.PopularityRanking, error) {
	if len(ratings) == 0 {
		return nil, recommend.ErrNoRatings
	}

	type accum struct {
		sum   float64
		count int
	}
	byItem := make(map[string]*accum)
	for _, r := range ratings {
		a := byItem[r.ItemID]
		if a == nil {
			a = &accum{}
			byItem[r.ItemID] = a
		}
		a.sum += r.Score
		a.count++
	}

	entries := make([]recommend.PopularityEntry, 0, len(byItem))
	for itemID, a := range byItem {
		mean := a.sum / float64(a.count)
		entries = append(entries, recommend.PopularityEntry{
			ItemID:    itemID,
			Mean:      mean,
			Count:     a.count,
			Composite: mean * float64(a.count),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Composite != entries[j].Composite {
			return entries[i].Composite > entries[j].Composite
		}
		return entries[i].ItemID < entries[j].ItemID
	})

	return &recommend.PopularityRanking{Entries: entries}, nil
}
