// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// fixtureService assembles a small service by hand so every artifact value
// is knowable without running the builders.
//
// Items: i1 "Alpha", i2 "Beta", i3 "Gamma", i4 "Delta".
// i3 has an empty neighbor list (zero-norm at build time).
func fixtureService(t *testing.T) *Service {
	t.Helper()

	index := &NeighborIndex{
		K: 20,
		Neighbors: map[string][]Neighbor{
			"i1": {{ItemID: "i2", Score: 0.91234}, {ItemID: "i4", Score: 0.5}},
			"i2": {{ItemID: "i1", Score: 0.91234}},
			"i3": {},
			"i4": {{ItemID: "i1", Score: 0.5}},
		},
		Titles: map[string]string{
			"i1": "Alpha", "i2": "Beta", "i3": "Gamma", "i4": "Delta",
		},
	}

	// One latent factor; est = GlobalBias + biases + pu*qi, clamped [1, 5].
	model := &FactorModel{
		Factors:    1,
		GlobalBias: 3,
		UserBias:   map[string]float64{"u1": 0.5, "u2": -0.5},
		ItemBias:   map[string]float64{"i1": 0, "i2": 0.5, "i4": -0.5},
		UserFactors: map[string][]float64{
			"u1": {1}, "u2": {-1},
		},
		ItemFactors: map[string][]float64{
			"i1": {0.5}, "i2": {0.25}, "i4": {-0.25},
		},
		MinRating: 1,
		MaxRating: 5,
	}

	pop := &PopularityRanking{Entries: []PopularityEntry{
		{ItemID: "i2", Mean: 4.256, Count: 10, Composite: 42.56},
		{ItemID: "i1", Mean: 4.5, Count: 8, Composite: 36},
		{ItemID: "i4", Mean: 3.0, Count: 5, Composite: 15},
	}}

	ratings := []Rating{
		{UserID: "u1", ItemID: "i1", Score: 5},
		{UserID: "u2", ItemID: "i2", Score: 3},
		{UserID: "u2", ItemID: "i4", Score: 2},
		{UserID: "u3", ItemID: "i3", Score: 0},
	}

	svc, err := NewService(index, model, pop, ratings, DefaultServiceConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNewServiceNilArtifact(t *testing.T) {
	_, err := NewService(nil, &FactorModel{}, &PopularityRanking{}, nil,
		DefaultServiceConfig(), zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for nil index")
	}
}

func TestRecommendSimilarFromNeighbors(t *testing.T) {
	svc := fixtureService(t)

	res := svc.RecommendSimilar("Alpha", 5)
	if res.Source != SourceSimilarity {
		t.Fatalf("source = %v, want similarity", res.Source)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(res.Items))
	}
	if res.Items[0].Title != "Beta" || res.Items[0].Score != 0.912 {
		t.Errorf("top item = %+v, want Beta with score rounded to 0.912", res.Items[0])
	}
	if res.Items[1].Title != "Delta" {
		t.Errorf("second item = %s, want Delta", res.Items[1].Title)
	}
}

func TestRecommendSimilarTruncates(t *testing.T) {
	svc := fixtureService(t)

	res := svc.RecommendSimilar("Alpha", 1)
	if len(res.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(res.Items))
	}
	if res.Items[0].Title != "Beta" {
		t.Errorf("item = %s, want Beta", res.Items[0].Title)
	}
}

func TestRecommendSimilarUnknownTitleFallsBack(t *testing.T) {
	svc := fixtureService(t)

	res := svc.RecommendSimilar("No Such Product", 2)
	if res.Source != SourcePopularity {
		t.Fatalf("source = %v, want popularity", res.Source)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(res.Items))
	}
	// Popularity order with display mean ratings rounded to 2 places.
	if res.Items[0].Title != "Beta" || res.Items[0].Score != 4.26 {
		t.Errorf("top fallback item = %+v, want Beta 4.26", res.Items[0])
	}
	if res.Items[1].Title != "Alpha" || res.Items[1].Score != 4.5 {
		t.Errorf("second fallback item = %+v, want Alpha 4.5", res.Items[1])
	}
}

func TestRecommendSimilarEmptyNeighborsFallsBack(t *testing.T) {
	svc := fixtureService(t)

	// Gamma is indexed but has no similarity data.
	res := svc.RecommendSimilar("Gamma", 3)
	if res.Source != SourcePopularity {
		t.Fatalf("source = %v, want popularity for empty neighbor list", res.Source)
	}
	if len(res.Items) != 3 {
		t.Errorf("got %d items, want 3", len(res.Items))
	}
}

func TestRecommendSimilarZeroN(t *testing.T) {
	svc := fixtureService(t)

	res := svc.RecommendSimilar("Alpha", 0)
	if len(res.Items) != 0 {
		t.Errorf("got %d items for n=0, want 0", len(res.Items))
	}
}

func TestRecommendForUserRanksUnrated(t *testing.T) {
	svc := fixtureService(t)

	// u1 has rated i1 only. Candidates in ID order: i2, i3, i4.
	// i3 is unknown to the model and skipped.
	// u1/i2: 3 + 0.5 + 0.5 + 1*0.25  = 4.25
	// u1/i4: 3 + 0.5 - 0.5 + 1*-0.25 = 2.75
	recs, err := svc.RecommendForUser("u1", 5)
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].Title != "Beta" || recs[0].PredictedRating != 4.25 {
		t.Errorf("top = %+v, want Beta 4.25", recs[0])
	}
	if recs[1].Title != "Delta" || recs[1].PredictedRating != 2.75 {
		t.Errorf("second = %+v, want Delta 2.75", recs[1])
	}
}

func TestRecommendForUserExcludesRated(t *testing.T) {
	svc := fixtureService(t)

	// u2 has rated i2 and i4, leaving only i1 scoreable.
	recs, err := svc.RecommendForUser("u2", 5)
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].Title != "Alpha" {
		t.Errorf("item = %s, want Alpha", recs[0].Title)
	}
}

func TestRecommendForUserNothingUnrated(t *testing.T) {
	index := &NeighborIndex{
		K:         20,
		Neighbors: map[string][]Neighbor{"i1": {}},
		Titles:    map[string]string{"i1": "Alpha"},
	}
	model := &FactorModel{
		Factors:     1,
		GlobalBias:  3,
		UserBias:    map[string]float64{"u1": 0.5},
		ItemBias:    map[string]float64{"i1": 0},
		UserFactors: map[string][]float64{"u1": {1}},
		ItemFactors: map[string][]float64{"i1": {0.5}},
		MinRating:   1,
		MaxRating:   5,
	}
	pop := &PopularityRanking{Entries: []PopularityEntry{
		{ItemID: "i1", Mean: 5, Count: 1, Composite: 5},
	}}
	ratings := []Rating{{UserID: "u1", ItemID: "i1", Score: 5}}

	svc, err := NewService(index, model, pop, ratings, DefaultServiceConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	// u1 has rated the entire catalog: an empty list, not an error.
	recs, err := svc.RecommendForUser("u1", 5)
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations, want none", len(recs))
	}
}

func TestRecommendForUserUnknownUser(t *testing.T) {
	svc := fixtureService(t)

	_, err := svc.RecommendForUser("stranger", 5)
	if !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("got %v, want ErrUnknownUser", err)
	}
}

func TestRecommendForUserTruncates(t *testing.T) {
	svc := fixtureService(t)

	recs, err := svc.RecommendForUser("u1", 1)
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if len(recs) != 1 || recs[0].Title != "Beta" {
		t.Errorf("recs = %+v, want just Beta", recs)
	}
}

func TestRecommendForUserCandidateCap(t *testing.T) {
	index := &NeighborIndex{Neighbors: map[string][]Neighbor{}, Titles: map[string]string{}}
	model := &FactorModel{
		Factors:     1,
		GlobalBias:  3,
		UserBias:    map[string]float64{"u1": 0},
		ItemBias:    map[string]float64{"a": 1, "b": 0.5, "c": 0},
		UserFactors: map[string][]float64{"u1": {0}},
		ItemFactors: map[string][]float64{"a": {0}, "b": {0}, "c": {0}},
		MinRating:   1,
		MaxRating:   5,
	}
	pop := &PopularityRanking{}
	ratings := []Rating{
		{UserID: "u1", ItemID: "a", Score: 4},
		{UserID: "u2", ItemID: "b", Score: 4},
		{UserID: "u2", ItemID: "c", Score: 4},
	}

	// Cap of 1: only the first unrated candidate in ID order ("b") is
	// evaluated, even though "c" would also be scoreable.
	svc, err := NewService(index, model, pop, ratings,
		ServiceConfig{MaxCandidates: 1}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	recs, err := svc.RecommendForUser("u1", 5)
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].Title != "b" {
		t.Errorf("item = %s, want b (first candidate in ID order)", recs[0].Title)
	}
}

func TestAvailableItems(t *testing.T) {
	svc := fixtureService(t)

	items := svc.AvailableItems()
	want := []string{"Alpha", "Beta", "Delta", "Gamma"}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, w := range want {
		if items[i] != w {
			t.Errorf("items[%d] = %s, want %s", i, items[i], w)
		}
	}
}

func TestTopPopular(t *testing.T) {
	svc := fixtureService(t)

	top := svc.TopPopular(2)
	if len(top) != 2 {
		t.Fatalf("got %d entries, want 2", len(top))
	}
	if top[0].Title != "Beta" || top[0].Score != 4.26 {
		t.Errorf("top = %+v, want Beta 4.26", top[0])
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{0.91234, 3, 0.912},
		{4.256, 2, 4.26},
		{2.5, 0, 3},
		{-1.2345, 3, -1.235},
	}
	for _, tt := range tests {
		if got := round(tt.v, tt.places); got != tt.want {
			t.Errorf("round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}
