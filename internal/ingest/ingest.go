// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package ingest loads the batch input files: the rating table and the
// product catalog.
//
// Both inputs are header-first CSV. Malformed rows are skipped and counted,
// never fatal: one bad export line must not block a training run. A file
// that yields zero usable rows is an error.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/metrics"
	"github.com/tomtom215/shelfrank/internal/recommend"
)

// ErrNoRows indicates an input file contained no usable data rows.
var ErrNoRows = errors.New("no usable rows in input")

// ratings CSV layout: user_id,item_id,rating
const (
	ratingFields     = 3
	ratingUserCol    = 0
	ratingItemCol    = 1
	ratingScoreCol   = 2
	catalogFields    = 2
	catalogItemCol   = 0
	catalogTitleCol  = 1
	sourceRatings    = "ratings"
	sourceCatalog    = "catalog"
	headerUserColumn = "user_id"
	headerItemColumn = "item_id"
)

// LoadRatings reads the rating table from path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func LoadRatings(path string, logger zerolog.Logger) ([]recommend.Rating, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open ratings file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close error after read is not actionable

	return ReadRatings(f, logger)
}

// ReadRatings parses rating triples from CSV. Rows with the wrong field
// count, an empty ID, or a non-numeric score are skipped and counted.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func ReadRatings(r io.Reader, logger zerolog.Logger) ([]recommend.Rating, error) {
	logger = logger.With().Str("component", "ingest").Logger()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // field-count validation is per-row, not fatal

	var ratings []recommend.Rating
	skipped := 0
	first := true

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Unparseable CSV line (for example a stray quote); still a
			// consumed row, so it counts toward the row total.
			metrics.IngestRowsTotal.WithLabelValues(sourceRatings).Inc()
			skipped++
			continue
		}

		if first {
			first = false
			if isRatingHeader(record) {
				continue
			}
		}

		metrics.IngestRowsTotal.WithLabelValues(sourceRatings).Inc()

		rating, ok := parseRating(record)
		if !ok {
			skipped++
			continue
		}
		ratings = append(ratings, rating)
	}

	if skipped > 0 {
		metrics.IngestSkippedRows.WithLabelValues(sourceRatings).Add(float64(skipped))
		logger.Warn().
			Int("skipped", skipped).
			Int("loaded", len(ratings)).
			Msg("skipped malformed rating rows")
	}
	if len(ratings) == 0 {
		return nil, ErrNoRows
	}

	logger.Info().Int("ratings", len(ratings)).Msg("rating table loaded")
	return ratings, nil
}

func isRatingHeader(record []string) bool {
	return len(record) > ratingItemCol &&
		strings.EqualFold(strings.TrimSpace(record[ratingUserCol]), headerUserColumn)
}

func parseRating(record []string) (recommend.Rating, bool) {
	if len(record) != ratingFields {
		return recommend.Rating{}, false
	}

	userID := strings.TrimSpace(record[ratingUserCol])
	itemID := strings.TrimSpace(record[ratingItemCol])
	if userID == "" || itemID == "" {
		return recommend.Rating{}, false
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(record[ratingScoreCol]), 64)
	if err != nil {
		return recommend.Rating{}, false
	}

	return recommend.Rating{UserID: userID, ItemID: itemID, Score: score}, true
}

// LoadCatalog reads the product catalog from path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func LoadCatalog(path string, logger zerolog.Logger) ([]recommend.CatalogEntry, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close error after read is not actionable

	return ReadCatalog(f, logger)
}

// ReadCatalog parses catalog entries from CSV. Titles may contain commas;
// standard CSV quoting applies.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func ReadCatalog(r io.Reader, logger zerolog.Logger) ([]recommend.CatalogEntry, error) {
	logger = logger.With().Str("component", "ingest").Logger()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var entries []recommend.CatalogEntry
	skipped := 0
	first := true

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.IngestRowsTotal.WithLabelValues(sourceCatalog).Inc()
			skipped++
			continue
		}

		if first {
			first = false
			if isCatalogHeader(record) {
				continue
			}
		}

		metrics.IngestRowsTotal.WithLabelValues(sourceCatalog).Inc()

		entry, ok := parseCatalogEntry(record)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	if skipped > 0 {
		metrics.IngestSkippedRows.WithLabelValues(sourceCatalog).Add(float64(skipped))
		logger.Warn().
			Int("skipped", skipped).
			Int("loaded", len(entries)).
			Msg("skipped malformed catalog rows")
	}
	if len(entries) == 0 {
		return nil, ErrNoRows
	}

	logger.Info().Int("items", len(entries)).Msg("product catalog loaded")
	return entries, nil
}

func isCatalogHeader(record []string) bool {
	return len(record) > catalogItemCol &&
		strings.EqualFold(strings.TrimSpace(record[catalogItemCol]), headerItemColumn)
}

func parseCatalogEntry(record []string) (recommend.CatalogEntry, bool) {
	if len(record) != catalogFields {
		return recommend.CatalogEntry{}, false
	}

	itemID := strings.TrimSpace(record[catalogItemCol])
	title := strings.TrimSpace(record[catalogTitleCol])
	if itemID == "" || title == "" {
		return recommend.CatalogEntry{}, false
	}

	return recommend.CatalogEntry{ItemID: itemID, Title: title}, true
}
