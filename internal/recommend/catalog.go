// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"sort"

	"github.com/rs/zerolog"
)

// CatalogEntry is one row of the product catalog.
type CatalogEntry struct {
	ItemID string
	Title  string
}

// Catalog is the bidirectional title/ID lookup built once from catalog
// entries and read-only at serving time.
//
// Titles are not guaranteed unique. On a duplicate title the first-seen
// entry wins the title-to-ID direction; later entries keep their own
// ID-to-title mapping but cannot be resolved by title.
type Catalog struct {
	titleByID map[string]string
	idByTitle map[string]string
}

// NewCatalog builds a catalog from entries. Duplicate titles are counted and
// logged at warn level.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCatalog(entries []CatalogEntry, logger zerolog.Logger) *Catalog {
	c := &Catalog{
		titleByID: make(map[string]string, len(entries)),
		idByTitle: make(map[string]string, len(entries)),
	}

	dupTitles := 0
	for _, e := range entries {
		if e.ItemID == "" || e.Title == "" {
			continue
		}
		if _, seen := c.titleByID[e.ItemID]; !seen {
			c.titleByID[e.ItemID] = e.Title
		}
		if _, seen := c.idByTitle[e.Title]; seen {
			dupTitles++
			continue
		}
		c.idByTitle[e.Title] = e.ItemID
	}

	if dupTitles > 0 {
		logger.Warn().
			Int("duplicate_titles", dupTitles).
			Msg("catalog contains duplicate titles, first-seen entry wins")
	}

	return c
}

// CatalogFromTitles rebuilds a catalog from an id-to-title map, as persisted
// inside the neighbor index artifact.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func CatalogFromTitles(titles map[string]string, logger zerolog.Logger) *Catalog {
	entries := make([]CatalogEntry, 0, len(titles))
	for id, title := range titles {
		entries = append(entries, CatalogEntry{ItemID: id, Title: title})
	}
	// Deterministic duplicate-title resolution regardless of map order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].ItemID < entries[j].ItemID })
	return NewCatalog(entries, logger)
}

// TitleOf resolves an item ID to its display title. Unknown IDs resolve to
// the ID itself so callers always have something displayable.
func (c *Catalog) TitleOf(itemID string) string {
	if title, ok := c.titleByID[itemID]; ok {
		return title
	}
	return itemID
}

// IDOf resolves a title to its item ID.
func (c *Catalog) IDOf(title string) (string, bool) {
	id, ok := c.idByTitle[title]
	return id, ok
}

// Titles returns the id-to-title map for persistence alongside the
// neighbor index. The returned map is shared; callers must not mutate it.
func (c *Catalog) Titles() map[string]string {
	return c.titleByID
}

// Len is the number of catalog items.
func (c *Catalog) Len() int {
	return len(c.titleByID)
}
