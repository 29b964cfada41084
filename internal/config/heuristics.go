package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Heuristics holds the tunable thresholds of the conversion pipeline.
type Heuristics struct {
	// TOC detection
	TOCScanPages       int     `yaml:"toc_scan_pages"`
	TOCMatchRatio      float64 `yaml:"toc_match_ratio"`
	TOCMinEntries      int     `yaml:"toc_min_entries"`
	IndentStep         float64 `yaml:"indent_step"`
	SkipCaptionEntries bool    `yaml:"skip_caption_entries"`

	// Page layout (points)
	RowTolerance float64 `yaml:"row_tolerance"`
	ColumnGap    float64 `yaml:"column_gap"`

	// Content extraction
	BoilerplateRatio       float64  `yaml:"boilerplate_ratio"`
	BoilerplateSamplePages int      `yaml:"boilerplate_sample_pages"`
	BoilerplateMinPages    int      `yaml:"boilerplate_min_pages"`
	BoilerplateEdgeLines   int      `yaml:"boilerplate_edge_lines"` // 0 = whole page
	BoilerplateDenylist    []string `yaml:"boilerplate_denylist"`
	IncludeRootPreamble    bool     `yaml:"include_root_preamble"`
}

// DefaultHeuristics returns the defaults used when no heuristics file is set.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		TOCScanPages:       40,
		TOCMatchRatio:      0.6,
		TOCMinEntries:      3,
		IndentStep:         12,
		SkipCaptionEntries: true,

		RowTolerance: 2,
		ColumnGap:    30,

		BoilerplateRatio:       0.7,
		BoilerplateSamplePages: 60,
		BoilerplateMinPages:    3,
		BoilerplateEdgeLines:   3,
	}
}

// LoadHeuristics reads a YAML heuristics file over the defaults. An empty
// path returns the defaults.
func LoadHeuristics(path string) (Heuristics, error) {
	if path == "" {
		return DefaultHeuristics(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Heuristics{}, fmt.Errorf("read heuristics %s: %w", path, err)
	}
	h, err := ParseHeuristics(data)
	if err != nil {
		return Heuristics{}, fmt.Errorf("heuristics %s: %w", path, err)
	}
	return h, nil
}

// ParseHeuristics decodes YAML over the defaults and validates the result.
func ParseHeuristics(data []byte) (Heuristics, error) {
	h := DefaultHeuristics()
	if err := yaml.Unmarshal(data, &h); err != nil {
		return Heuristics{}, fmt.Errorf("parse: %w", err)
	}
	return h, h.Validate()
}

// Validate checks that values are in range.
func (h Heuristics) Validate() error {
	if h.TOCScanPages <= 0 {
		return fmt.Errorf("toc_scan_pages must be > 0")
	}
	if h.TOCMatchRatio <= 0 || h.TOCMatchRatio > 1 {
		return fmt.Errorf("toc_match_ratio must be in (0, 1]")
	}
	if h.TOCMinEntries < 1 {
		return fmt.Errorf("toc_min_entries must be >= 1")
	}
	if h.IndentStep <= 0 {
		return fmt.Errorf("indent_step must be > 0")
	}
	if h.RowTolerance < 0 || h.ColumnGap <= 0 {
		return fmt.Errorf("row_tolerance must be >= 0 and column_gap > 0")
	}
	if h.BoilerplateRatio <= 0 || h.BoilerplateRatio > 1 {
		return fmt.Errorf("boilerplate_ratio must be in (0, 1]")
	}
	if h.BoilerplateSamplePages < 0 || h.BoilerplateMinPages < 0 || h.BoilerplateEdgeLines < 0 {
		return fmt.Errorf("boilerplate_sample_pages, boilerplate_min_pages and boilerplate_edge_lines must be >= 0")
	}
	for i, pat := range h.BoilerplateDenylist {
		if _, err := regexp.Compile(pat); err != nil {
			return fmt.Errorf("boilerplate_denylist[%d]: %w", i, err)
		}
	}
	return nil
}
