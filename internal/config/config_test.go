package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "WORKER_COUNT", "MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "JOB_TTL", "REQUEST_TIMEOUT", "PAGE_OFFSET", "HEURISTICS_FILE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" || cfg.WorkerCount != 4 || cfg.MaxQueueSize != 100 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxUploadBytes != 52428800 || cfg.JobTTL != time.Hour || cfg.RequestTimeout != 2*time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.PageOffset != nil {
		t.Errorf("expected no page offset, got %d", *cfg.PageOffset)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid defaults, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("REQUEST_TIMEOUT", "45s")
	t.Setenv("PAGE_OFFSET", "-2")
	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected non-positive worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.PageOffset == nil || *cfg.PageOffset != -2 {
		t.Errorf("expected page offset -2, got %v", cfg.PageOffset)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Setenv("PAGE_OFFSET", "two")
	t.Setenv("PORT", "http")
	t.Setenv("HEURISTICS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	err := Load().Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"PAGE_OFFSET", "PORT", "HEURISTICS_FILE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestLoadHeuristics(t *testing.T) {
	h, err := LoadHeuristics("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.TOCMatchRatio != 0.6 || h.BoilerplateRatio != 0.7 || h.BoilerplateEdgeLines != 3 || !h.SkipCaptionEntries {
		t.Errorf("unexpected defaults %+v", h)
	}

	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	data := "toc_scan_pages: 12\nboilerplate_denylist:\n  - '(?i)^copyright'\ninclude_root_preamble: true\nboilerplate_edge_lines: 0\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	h, err = LoadHeuristics(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.TOCScanPages != 12 || !h.IncludeRootPreamble || len(h.BoilerplateDenylist) != 1 || h.BoilerplateEdgeLines != 0 {
		t.Errorf("file values not applied: %+v", h)
	}
	if h.TOCMatchRatio != 0.6 {
		t.Errorf("expected unset keys to keep defaults, got %v", h.TOCMatchRatio)
	}
}

func TestParseHeuristics_Invalid(t *testing.T) {
	cases := []string{
		"toc_match_ratio: 1.5",
		"boilerplate_denylist: ['(']",
		"indent_step: 0",
		"boilerplate_edge_lines: -1",
		"toc_scan_pages: [",
	}
	for _, c := range cases {
		if _, err := ParseHeuristics([]byte(c)); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}
