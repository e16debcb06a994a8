// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import "sort"

// Rating is one observed user-item rating triple.
type Rating struct {
	// UserID is the external user identifier.
	UserID string `json:"user_id"`

	// ItemID is the stable external item key.
	ItemID string `json:"item_id"`

	// Score is the rating value, bounded by the scale fixed at build time.
	Score float64 `json:"rating"`
}

// Neighbor is one entry in an item's similarity list.
type Neighbor struct {
	// ItemID is the neighboring item.
	ItemID string `json:"item_id"`

	// Score is the cosine similarity to the source item, in [-1, 1].
	Score float64 `json:"score"`
}

// NeighborIndex is the precomputed top-K item-neighborhood artifact.
// Neighbor lists are sorted by descending score, exclude the item itself,
// and hold at most K entries. Items with an all-zero rating vector have an
// empty list; items absent from the rating store have no entry at all.
// Both cases mean "no similarity data" and trigger the popularity fallback.
type NeighborIndex struct {
	// K is the neighbor cap the index was built with.
	K int

	// Neighbors maps item ID to its ordered neighbor list.
	Neighbors map[string][]Neighbor

	// Titles maps item ID to display title, frozen at build time so the
	// index is self-contained (the catalog and index ship as one artifact).
	Titles map[string]string
}

// NeighborsOf returns the neighbor list for an item. The second return is
// false when the item has no entry; callers treat an empty list and a
// missing entry identically.
func (idx *NeighborIndex) NeighborsOf(itemID string) ([]Neighbor, bool) {
	ns, ok := idx.Neighbors[itemID]
	return ns, ok
}

// ItemTitles returns the sorted titles of all items present in the index.
func (idx *NeighborIndex) ItemTitles() []string {
	titles := make([]string, 0, len(idx.Neighbors))
	for id := range idx.Neighbors {
		if title, ok := idx.Titles[id]; ok {
			titles = append(titles, title)
		} else {
			titles = append(titles, id)
		}
	}
	sort.Strings(titles)
	return titles
}

// PopularityEntry is one item's aggregate rating statistics.
type PopularityEntry struct {
	// ItemID is the item.
	ItemID string `json:"item_id"`

	// Mean is the average rating.
	Mean float64 `json:"mean_rating"`

	// Count is the number of ratings.
	Count int `json:"rating_count"`

	// Composite is Mean * Count, weighting high-volume, high-quality items
	// above high-rating, low-volume outliers.
	Composite float64 `json:"composite_score"`
}

// PopularityRanking is the popularity artifact: all items ordered by
// descending composite score, ties broken by item ID for determinism.
type PopularityRanking struct {
	Entries []PopularityEntry
}

// TopN returns the first n entries of the ranking.
func (p *PopularityRanking) TopN(n int) []PopularityEntry {
	if n <= 0 || len(p.Entries) == 0 {
		return nil
	}
	if n > len(p.Entries) {
		n = len(p.Entries)
	}
	out := make([]PopularityEntry, n)
	copy(out, p.Entries[:n])
	return out
}

// Source identifies which strategy produced a similar-items result.
type Source int

const (
	// SourceSimilarity means scores are neighbor cosine similarities.
	SourceSimilarity Source = iota
	// SourcePopularity means the popularity fallback was used; scores are
	// display mean ratings, not similarities.
	SourcePopularity
)

// String returns a wire-stable name for the source.
func (s Source) String() string {
	switch s {
	case SourceSimilarity:
		return "similarity"
	case SourcePopularity:
		return "popularity"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the source as its string name.
func (s Source) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Recommendation is one ranked similar-items result entry.
type Recommendation struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// SimilarResult is the outcome of a similar-items query. Source makes the
// popularity fallback distinguishable from a real similarity ranking.
type SimilarResult struct {
	Source Source           `json:"source"`
	Items  []Recommendation `json:"items"`
}

// UserRecommendation is one ranked personalized result entry.
type UserRecommendation struct {
	Title           string  `json:"title"`
	PredictedRating float64 `json:"predicted_rating"`
}
