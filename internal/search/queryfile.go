// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/report-engine/pkg/types"
)

// QueryFile is the on-disk representation of a research batch: the queries,
// the backend and budget that answered them, and the deduplicated sources.
// A saved file can be reformatted later without re-querying the backend.
type QueryFile struct {
	Queries []string             `yaml:"queries"`
	Config  QueryFileConfig      `yaml:"config"`
	Sources []types.SearchResult `yaml:"sources"`
	Summary QuerySummary         `yaml:"summary"`
}

// QueryFileConfig stores the settings that produced the sources.
type QueryFileConfig struct {
	Backend            types.SearchBackend `yaml:"backend"`
	MaxTokensPerSource int                 `yaml:"max_tokens_per_source"`
	IncludeRawContent  bool                `yaml:"include_raw_content"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a research batch to a YAML file.
func WriteQueryFile(path string, queries []string, backend types.SearchBackend, budget Budget, r Research) error {
	qf := QueryFile{
		Queries: queries,
		Config: QueryFileConfig{
			Backend:            backend,
			MaxTokensPerSource: budget.MaxTokensPerSource,
			IncludeRawContent:  budget.IncludeRawContent,
		},
		Sources: r.Sources,
		Summary: QuerySummary{
			Total:             len(r.Sources),
			DuplicatesRemoved: r.DupsRemoved,
			Timestamp:         time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// Context re-renders the stored sources with the stored budget.
func (qf *QueryFile) Context() string {
	return FormatSources(qf.Sources, qf.Config.MaxTokensPerSource, qf.Config.IncludeRawContent)
}
