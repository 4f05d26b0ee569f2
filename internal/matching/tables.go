package matching

import (
	"encoding/json"
	"fmt"
	"os"
)

// Rewrite is one ordered find/replace pass applied during normalization.
// Patterns are written in already-normalized form (uppercase, no diacritics).
type Rewrite struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RelevanceTables holds the closed-world relevance filter lists.
type RelevanceTables struct {
	ExcludeKeywords   []string `json:"excludeKeywords"`
	ExcludeCategories []string `json:"excludeCategories"`
	IncludeKeywords   []string `json:"includeKeywords"`
	IncludeCategories []string `json:"includeCategories"`
}

// Tables holds the curated matching data: rewrite passes, filler words,
// the institution alias table, and the classifier keyword lists. Kept as
// data so new institutions can be added without touching matching logic.
type Tables struct {
	PlaceNameRewrites []Rewrite           `json:"placeNameRewrites"`
	FeedNameRewrites  []Rewrite           `json:"feedNameRewrites"`
	FillerWords       []string            `json:"fillerWords"`
	Articles          []string            `json:"articles"`
	ArticlePrefixes   []string            `json:"articlePrefixes"`
	HospitalAliases   map[string][]string `json:"hospitalAliases"`
	TypeKeywords      map[string][]string `json:"typeKeywords"`
	TypeCategories    map[string][]string `json:"typeCategories"`
	Relevance         RelevanceTables     `json:"relevance"`
}

// LoadTables reads and parses the matching tables from a JSON config file.
func LoadTables(configPath string) (*Tables, error) {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var tables Tables
	if err := json.Unmarshal(configFile, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &tables, nil
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	if configPath := os.Getenv("MATCHING_CONFIG"); configPath != "" {
		return configPath
	}

	return "config/facility_matching.json"
}
