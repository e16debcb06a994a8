// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

// Artifact names used as filename prefixes and metric labels.
const (
	ArtifactNeighbors  = "neighbors"
	ArtifactSVD        = "svd"
	ArtifactPopularity = "popularity"
)

const fileSuffix = ".gob.gz"

// ArtifactMetadata describes one stored artifact version.
type ArtifactMetadata struct {
	// Name is the artifact name (e.g. "neighbors").
	Name string `json:"name"`

	// Version is the monotonically increasing artifact version.
	Version int `json:"version"`

	// TrainedAt is when the build that produced this artifact started.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the artifact was written.
	SavedAt time.Time `json:"saved_at"`

	// RatingCount, ItemCount, and UserCount describe the rating store the
	// artifact was built from.
	RatingCount int `json:"rating_count"`
	ItemCount   int `json:"item_count"`
	UserCount   int `json:"user_count"`

	// RMSE and MAE are held-out metrics, populated for the factor model
	// only. They are informational; a save never fails on a bad score.
	RMSE float64 `json:"rmse,omitempty"`
	MAE  float64 `json:"mae,omitempty"`

	// Checksum is the SHA-256 hex digest of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`

	// BuildDurationMS is how long the artifact build took.
	BuildDurationMS int64 `json:"build_duration_ms"`
}

// storedFile is the on-disk envelope.
type storedFile struct {
	Metadata       ArtifactMetadata
	CompressedData []byte
}

// Store manages versioned artifact files under a single directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest version per artifact name
	versions map[string]int
}

// NewStore opens (creating if needed) an artifact store at baseDir and
// scans it for existing versions.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}

	names, err := s.scanVersions("")
	if err != nil {
		return nil, fmt.Errorf("scan existing artifacts: %w", err)
	}
	for name, versions := range names {
		s.versions[name] = versions[0]
	}

	return s, nil
}

// scanVersions lists the on-disk versions per artifact, descending. When
// name is non-empty only that artifact is scanned.
func (s *Store) scanVersions(name string) (map[string][]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, ok := strings.CutSuffix(entry.Name(), fileSuffix)
		if !ok {
			continue
		}
		artifact, version := parseArtifactFilename(base)
		if artifact == "" || (name != "" && artifact != name) {
			continue
		}
		out[artifact] = append(out[artifact], version)
	}

	for artifact := range out {
		sort.Sort(sort.Reverse(sort.IntSlice(out[artifact])))
	}
	return out, nil
}

// parseArtifactFilename splits "neighbors_v3" into ("neighbors", 3).
func parseArtifactFilename(base string) (name string, version int) {
	idx := strings.LastIndex(base, "_v")
	if idx < 1 {
		return "", 0
	}
	if _, err := fmt.Sscanf(base[idx+2:], "%d", &version); err != nil || version < 1 {
		return "", 0
	}
	return base[:idx], version
}

// Save gob-encodes, compresses, and writes one artifact version. The
// returned metadata has the checksum, size, and save time filled in.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int, artifact interface{}, meta ArtifactMetadata) (*ArtifactMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(artifact); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	raw := buf.Bytes()

	hash := sha256.Sum256(raw)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress artifact: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.Name = name
	meta.Version = version
	meta.SavedAt = time.Now()
	meta.SizeBytes = int64(compressed.Len())

	f, err := os.Create(s.artifactPath(name, version)) //nolint:gosec // path is built from a fixed artifact name
	if err != nil {
		return nil, fmt.Errorf("create artifact file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close error after a successful encode is not actionable

	sf := storedFile{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		return nil, fmt.Errorf("write artifact file: %w", err)
	}

	if current, ok := s.versions[name]; !ok || version > current {
		s.versions[name] = version
	}
	return &meta, nil
}

// Load reads one artifact version into target, verifying the checksum.
// Version 0 means the latest stored version.
func (s *Store) Load(ctx context.Context, name string, version int, target interface{}) (*ArtifactMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[name]
		if !ok {
			return nil, fmt.Errorf("no stored artifact for %q", name)
		}
	}

	f, err := os.Open(s.artifactPath(name, version)) //nolint:gosec // path is built from a fixed artifact name
	if err != nil {
		return nil, fmt.Errorf("open artifact file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close error after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read artifact file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress artifact: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close error after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch for %s v%d: expected %s, got %s",
			name, version, sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &sf.Metadata, nil
}

// LatestVersion returns the newest stored version for an artifact.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// List returns metadata for the latest version of every stored artifact.
func (s *Store) List(ctx context.Context) ([]ArtifactMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var metas []ArtifactMetadata
	for name, version := range s.versions {
		f, err := os.Open(s.artifactPath(name, version)) //nolint:gosec // path is built from scanned artifact names
		if err != nil {
			continue
		}
		var sf storedFile
		err = gob.NewDecoder(f).Decode(&sf)
		_ = f.Close() //nolint:errcheck // close error after read is not actionable
		if err != nil {
			continue
		}
		metas = append(metas, sf.Metadata)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}

// Delete removes one artifact version and re-derives the latest version
// from the remaining files.
func (s *Store) Delete(ctx context.Context, name string, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.artifactPath(name, version)); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}

	if s.versions[name] != version {
		return nil
	}
	remaining, err := s.scanVersions(name)
	if err != nil {
		return fmt.Errorf("rescan artifact versions: %w", err)
	}
	if versions := remaining[name]; len(versions) > 0 {
		s.versions[name] = versions[0]
	} else {
		delete(s.versions, name)
	}
	return nil
}

// Prune removes old versions of an artifact, keeping the newest
// keepVersions files.
func (s *Store) Prune(ctx context.Context, name string, keepVersions int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if keepVersions < 1 {
		keepVersions = 1
	}

	found, err := s.scanVersions(name)
	if err != nil {
		return fmt.Errorf("scan artifact versions: %w", err)
	}

	versions := found[name]
	for _, v := range versions[min(keepVersions, len(versions)):] {
		_ = os.Remove(s.artifactPath(name, v)) //nolint:errcheck // best-effort cleanup of old versions
	}
	return nil
}

func (s *Store) artifactPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, fileSuffix))
}

// ArtifactSet is the consistent trio of serving artifacts plus the
// metadata they were loaded with.
type ArtifactSet struct {
	Index      *recommend.NeighborIndex
	Model      *recommend.FactorModel
	Popularity *recommend.PopularityRanking

	IndexMeta      *ArtifactMetadata
	ModelMeta      *ArtifactMetadata
	PopularityMeta *ArtifactMetadata
}

// LoadLatest loads the newest version of all three serving artifacts. A
// missing artifact is an error: the server cannot start on a partial set.
func (s *Store) LoadLatest(ctx context.Context) (*ArtifactSet, error) {
	set := &ArtifactSet{
		Index:      &recommend.NeighborIndex{},
		Model:      &recommend.FactorModel{},
		Popularity: &recommend.PopularityRanking{},
	}

	var err error
	if set.IndexMeta, err = s.Load(ctx, ArtifactNeighbors, 0, set.Index); err != nil {
		return nil, fmt.Errorf("load neighbor index: %w", err)
	}
	if set.ModelMeta, err = s.Load(ctx, ArtifactSVD, 0, set.Model); err != nil {
		return nil, fmt.Errorf("load factor model: %w", err)
	}
	if set.PopularityMeta, err = s.Load(ctx, ArtifactPopularity, 0, set.Popularity); err != nil {
		return nil, fmt.Errorf("load popularity ranking: %w", err)
	}
	return set, nil
}
