// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/recommend"
	"github.com/tomtom215/shelfrank/internal/recommend/storage"
)

// newTestServer wires a handler over a small in-memory artifact set.
//
// Items: i1 "Alpha", i2 "Beta", i3 "Gamma". u1 has rated i1.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	index := &recommend.NeighborIndex{
		K: 20,
		Neighbors: map[string][]recommend.Neighbor{
			"i1": {{ItemID: "i2", Score: 0.8}, {ItemID: "i3", Score: 0.4}},
			"i2": {{ItemID: "i1", Score: 0.8}},
			"i3": {{ItemID: "i1", Score: 0.4}},
		},
		Titles: map[string]string{"i1": "Alpha", "i2": "Beta", "i3": "Gamma"},
	}
	model := &recommend.FactorModel{
		Factors:     1,
		GlobalBias:  3,
		UserBias:    map[string]float64{"u1": 0.5},
		ItemBias:    map[string]float64{"i1": 0, "i2": 0.5, "i3": -0.5},
		UserFactors: map[string][]float64{"u1": {0.5}},
		ItemFactors: map[string][]float64{"i1": {0.2}, "i2": {0.4}, "i3": {-0.4}},
		MinRating:   1,
		MaxRating:   5,
	}
	pop := &recommend.PopularityRanking{Entries: []recommend.PopularityEntry{
		{ItemID: "i2", Mean: 4.5, Count: 9, Composite: 40.5},
		{ItemID: "i1", Mean: 4.0, Count: 6, Composite: 24},
		{ItemID: "i3", Mean: 3.0, Count: 3, Composite: 9},
	}}
	ratings := []recommend.Rating{
		{UserID: "u1", ItemID: "i1", Score: 5},
		{UserID: "u2", ItemID: "i2", Score: 4},
		{UserID: "u2", ItemID: "i3", Score: 3},
	}

	svc, err := recommend.NewService(index, model, pop, ratings,
		recommend.DefaultServiceConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	limits := config.LimitsConfig{DefaultN: 2, MaxN: 5, MaxCandidates: 500}
	artifacts := []storage.ArtifactMetadata{{Name: storage.ArtifactNeighbors, Version: 1}}
	h := NewHandler(svc, limits, artifacts, zerolog.Nop())

	server := httptest.NewServer(NewRouter(h, config.ServerConfig{RateLimitPerMinute: 0}))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string) (int, APIResponse) {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec,noctx // test server URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // test cleanup

	var envelope APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, envelope
}

func dataMap(t *testing.T, envelope APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want object", envelope.Data)
	}
	return m
}

func TestSimilarItems(t *testing.T) {
	server := newTestServer(t)

	status, envelope := getJSON(t, server.URL+"/api/v1/recommendations/similar?title=Alpha")
	if status != http.StatusOK || !envelope.Success {
		t.Fatalf("status %d, success %v", status, envelope.Success)
	}

	data := dataMap(t, envelope)
	if data["source"] != "similarity" {
		t.Errorf("source = %v, want similarity", data["source"])
	}
	items, ok := data["items"].([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v, want 2 entries (default n)", data["items"])
	}
	first := items[0].(map[string]interface{})
	if first["title"] != "Beta" {
		t.Errorf("top item = %v, want Beta", first["title"])
	}
}

func TestSimilarItemsMissingTitle(t *testing.T) {
	server := newTestServer(t)

	status, envelope := getJSON(t, server.URL+"/api/v1/recommendations/similar")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if envelope.Success || envelope.Error == nil || envelope.Error.Code != ErrCodeBadRequest {
		t.Errorf("error envelope = %+v", envelope.Error)
	}
}

func TestSimilarItemsFallbackSource(t *testing.T) {
	server := newTestServer(t)

	status, envelope := getJSON(t, server.URL+"/api/v1/recommendations/similar?title=Unknown+Product")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	data := dataMap(t, envelope)
	if data["source"] != "popularity" {
		t.Errorf("source = %v, want popularity fallback", data["source"])
	}
}

func TestSimilarItemsNCapped(t *testing.T) {
	server := newTestServer(t)

	// MaxN is 5; n=100 is clamped, not rejected. Fixture only has two
	// neighbors for Alpha, so everything comes back.
	status, envelope := getJSON(t, server.URL+"/api/v1/recommendations/similar?title=Alpha&n=100")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	items := dataMap(t, envelope)["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}
}

func TestSimilarItemsInvalidN(t *testing.T) {
	server := newTestServer(t)

	for _, n := range []string{"0", "-1", "abc"} {
		status, _ := getJSON(t, server.URL+"/api/v1/recommendations/similar?title=Alpha&n="+n)
		if status != http.StatusBadRequest {
			t.Errorf("n=%s: status = %d, want 400", n, status)
		}
	}
}

func TestUserRecommendations(t *testing.T) {
	server := newTestServer(t)

	status, envelope := getJSON(t, server.URL+"/api/v1/recommendations/user/u1")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	data := dataMap(t, envelope)
	if data["user_id"] != "u1" {
		t.Errorf("user_id = %v, want u1", data["user_id"])
	}
	items, ok := data["items"].([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v, want 2 unrated items", data["items"])
	}
	// u1/i2 predicts higher than u1/i3.
	first := items[0].(map[string]interface{})
	if first["title"] != "Beta" {
		t.Errorf("top item = %v, want Beta", first["title"])
	}
}

func TestUserRecommendationsUnknownUser(t *testing.T) {
	server := newTestServer(t)

	status, envelope := getJSON(t, server.URL+"/api/v1/recommendations/user/stranger")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeUserNotFound {
		t.Errorf("error = %+v, want USER_NOT_FOUND", envelope.Error)
	}
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(t)

	status, envelope := getJSON(t, server.URL+"/api/v1/nope")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", envelope.Error)
	}
}

func TestItems(t *testing.T) {
	server := newTestServer(t)

	status, envelope := getJSON(t, server.URL+"/api/v1/items")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	data := dataMap(t, envelope)
	if data["count"] != float64(3) {
		t.Errorf("count = %v, want 3", data["count"])
	}
	items := data["items"].([]interface{})
	if items[0] != "Alpha" {
		t.Errorf("first item = %v, want Alpha (sorted)", items[0])
	}
}

func TestPopular(t *testing.T) {
	server := newTestServer(t)

	status, envelope := getJSON(t, server.URL+"/api/v1/popular?n=2")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	data := dataMap(t, envelope)
	items := data["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["title"] != "Beta" || first["score"] != 4.5 {
		t.Errorf("top popular = %v, want Beta 4.5", first)
	}
}

func TestStatus(t *testing.T) {
	server := newTestServer(t)

	status, envelope := getJSON(t, server.URL+"/api/v1/status")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	data := dataMap(t, envelope)
	if data["status"] != "ok" {
		t.Errorf("status field = %v, want ok", data["status"])
	}
	artifacts, ok := data["artifacts"].([]interface{})
	if !ok || len(artifacts) != 1 {
		t.Errorf("artifacts = %v, want the loaded set", data["artifacts"])
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz") //nolint:gosec,noctx // test server URL
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // test cleanup

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/metrics") //nolint:gosec,noctx // test server URL
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // test cleanup

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/status", nil) //nolint:noctx // test request
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Request-ID", "upstream-id-123")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // test cleanup

	if got := resp.Header.Get("X-Request-ID"); got != "upstream-id-123" {
		t.Errorf("X-Request-ID = %s, want upstream value echoed", got)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/status") //nolint:gosec,noctx // test server URL
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // test cleanup

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set on response")
	}
}
