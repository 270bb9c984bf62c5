package feedcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oppwire/harvester/app/database"
)

func writeDefinition(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()

	writeDefinition(t, dir, "tech-grants.yml", `
kind: rss
url: https://example.com/feed.xml
content_kind: grant
interval: every_6_hours
priority: 5
settings:
  scraping: false
  auto_publish: true
  quality_threshold: 0.8
  fallback_image: https://example.com/default.jpg
`)

	writeDefinition(t, dir, "scholarship-pages.yml", `
kind: url_list
urls:
  - https://example.com/s1
  - https://example.com/s2
content_kind: scholarship
`)

	defs, err := NewLoader(dir).LoadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(defs) != 2 {
		t.Fatalf("Expected 2 definitions, got %d", len(defs))
	}

	grants := defs["tech-grants"]
	if grants == nil {
		t.Fatal("Expected definition named 'tech-grants'")
	}
	if grants.Kind != database.SourceKindRSS {
		t.Errorf("Expected kind 'rss', got '%s'", grants.Kind)
	}
	if grants.Interval != "every_6_hours" {
		t.Errorf("Expected interval 'every_6_hours', got '%s'", grants.Interval)
	}
	if grants.Settings.QualityThreshold == nil || *grants.Settings.QualityThreshold != 0.8 {
		t.Error("Expected quality threshold 0.8")
	}

	scholarships := defs["scholarship-pages"]
	if scholarships == nil {
		t.Fatal("Expected definition named 'scholarship-pages'")
	}
	if scholarships.Interval != "daily" {
		t.Errorf("Expected default interval 'daily', got '%s'", scholarships.Interval)
	}
	if len(scholarships.URLs) != 2 {
		t.Errorf("Expected 2 urls, got %d", len(scholarships.URLs))
	}
}

func TestLoadAllMissingDirectory(t *testing.T) {
	defs, err := NewLoader("/nonexistent/feeds").LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 0 {
		t.Errorf("Expected no definitions, got %d", len(defs))
	}
}

func TestLoadAllInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "broken.yml", `
kind: rss
content_kind: grant
`)

	if _, err := NewLoader(dir).LoadAll(); err == nil {
		t.Error("Expected error for rss definition without url")
	}
}

func TestValidate(t *testing.T) {
	ptr := func(f float64) *float64 { return &f }

	valid := func() *Definition {
		return &Definition{
			Name:        "test",
			Kind:        database.SourceKindRSS,
			URL:         "https://example.com/feed.xml",
			ContentKind: "grant",
			Interval:    "daily",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr bool
	}{
		{"valid rss", func(d *Definition) {}, false},
		{"missing name", func(d *Definition) { d.Name = "" }, true},
		{"unknown kind", func(d *Definition) { d.Kind = "sitemap" }, true},
		{"rss without url", func(d *Definition) { d.URL = "" }, true},
		{"url_list without urls", func(d *Definition) { d.Kind = database.SourceKindURLList; d.URL = "" }, true},
		{"unknown content kind", func(d *Definition) { d.ContentKind = "podcast" }, true},
		{"blog post kind", func(d *Definition) { d.ContentKind = "blog_post" }, false},
		{"unknown interval", func(d *Definition) { d.Interval = "monthly" }, true},
		{"zero quality threshold", func(d *Definition) { d.Settings.QualityThreshold = ptr(0) }, true},
		{"negative quality threshold", func(d *Definition) { d.Settings.QualityThreshold = ptr(-0.5) }, true},
		{"quality threshold above one", func(d *Definition) { d.Settings.QualityThreshold = ptr(1.5) }, true},
		{"quality threshold of one", func(d *Definition) { d.Settings.QualityThreshold = ptr(1.0) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid()
			tt.mutate(def)
			err := Validate(def)
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestToFeedDefaults(t *testing.T) {
	def := &Definition{
		Name:        "test",
		Kind:        database.SourceKindURLList,
		URLs:        []string{"https://example.com/a", "https://example.com/b"},
		ContentKind: "grant",
		Interval:    "daily",
	}

	feed := def.ToFeed()

	if !feed.Enabled {
		t.Error("Expected feed enabled by default")
	}
	if !feed.ScrapingEnabled {
		t.Error("Expected scraping enabled by default")
	}
	if !feed.AIEnabled {
		t.Error("Expected AI enabled by default")
	}
	if feed.AutoPublish != nil {
		t.Error("Expected auto publish unset by default")
	}
	if feed.SourceList != "https://example.com/a\nhttps://example.com/b" {
		t.Errorf("Expected newline-joined source list, got '%s'", feed.SourceList)
	}
}

func TestToFeedExplicitSettings(t *testing.T) {
	off := false
	def := &Definition{
		Name:        "test",
		Kind:        database.SourceKindRSS,
		URL:         "https://example.com/feed.xml",
		ContentKind: "blog_post",
		Interval:    "hourly",
		Settings: Settings{
			Enabled:  &off,
			Scraping: &off,
			AI:       &off,
		},
	}

	feed := def.ToFeed()

	if feed.Enabled || feed.ScrapingEnabled || feed.AIEnabled {
		t.Error("Expected explicit false settings to be honored")
	}
}

func TestIntervalDuration(t *testing.T) {
	if d, ok := IntervalDuration("weekly"); !ok || d.Hours() != 168 {
		t.Errorf("Expected weekly = 168h, got %v (ok=%v)", d, ok)
	}
	if _, ok := IntervalDuration("fortnightly"); ok {
		t.Error("Expected unknown interval to report not ok")
	}
}
