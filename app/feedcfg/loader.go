package feedcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oppwire/harvester/app/database"
	"github.com/oppwire/harvester/app/prompt"
)

var intervals = map[string]time.Duration{
	"hourly":         time.Hour,
	"every_6_hours":  6 * time.Hour,
	"every_12_hours": 12 * time.Hour,
	"daily":          24 * time.Hour,
	"weekly":         7 * 24 * time.Hour,
}

// IntervalDuration maps a feed interval name to its duration.
func IntervalDuration(name string) (time.Duration, bool) {
	d, ok := intervals[name]
	return d, ok
}

type Loader struct {
	feedsDir string
}

func NewLoader(feedsDir string) *Loader {
	return &Loader{feedsDir: feedsDir}
}

// LoadAll parses every *.yml definition in the feeds directory. A missing
// directory is not an error; the service can run on database-registered
// feeds alone.
func (l *Loader) LoadAll() (map[string]*Definition, error) {
	defs := make(map[string]*Definition)

	if _, err := os.Stat(l.feedsDir); os.IsNotExist(err) {
		return defs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.feedsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		feedName := strings.TrimSuffix(fileName, ".yml")

		def, err := l.parse(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}
		def.Name = feedName

		if err := Validate(def); err != nil {
			return nil, fmt.Errorf("invalid definition %s: %w", file, err)
		}

		defs[feedName] = def
	}

	return defs, nil
}

func (l *Loader) parse(file string) (*Definition, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if def.Interval == "" {
		def.Interval = "daily"
	}

	return &def, nil
}

// Validate checks a definition for structural problems. A quality_threshold
// of 0 is rejected outright: zero means "accept everything", which is never
// what an operator wants from an override, so the ambiguity between "unset"
// and "zero" cannot reach the pipeline.
func Validate(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("feed name is required")
	}

	switch def.Kind {
	case database.SourceKindRSS:
		if def.URL == "" {
			return fmt.Errorf("rss feed requires a url")
		}
	case database.SourceKindURLList:
		if len(def.URLs) == 0 {
			return fmt.Errorf("url_list feed requires at least one url")
		}
	default:
		return fmt.Errorf("unknown source kind: %s", def.Kind)
	}

	if !prompt.IsValidKind(def.ContentKind) {
		return fmt.Errorf("unknown content kind: %s", def.ContentKind)
	}

	if _, ok := IntervalDuration(def.Interval); !ok {
		return fmt.Errorf("unknown interval: %s", def.Interval)
	}

	if t := def.Settings.QualityThreshold; t != nil {
		if *t <= 0 || *t > 1 {
			return fmt.Errorf("quality_threshold must be in (0, 1], got %v", *t)
		}
	}

	return nil
}

// ToFeed converts a definition into its database representation. Optional
// booleans default to enabled.
func (def *Definition) ToFeed() database.Feed {
	enabled := true
	if def.Settings.Enabled != nil {
		enabled = *def.Settings.Enabled
	}
	scraping := true
	if def.Settings.Scraping != nil {
		scraping = *def.Settings.Scraping
	}
	ai := true
	if def.Settings.AI != nil {
		ai = *def.Settings.AI
	}

	return database.Feed{
		Name:              def.Name,
		SourceKind:        def.Kind,
		SourceURL:         def.URL,
		SourceList:        strings.Join(def.URLs, "\n"),
		ContentKind:       def.ContentKind,
		Interval:          def.Interval,
		Priority:          def.Priority,
		Enabled:           enabled,
		ScrapingEnabled:   scraping,
		AllowRepublishing: def.Settings.AllowRepublishing,
		AIEnabled:         ai,
		AIProvider:        def.Settings.AIProvider,
		AIModel:           def.Settings.AIModel,
		AIAPIKey:          def.Settings.AIAPIKey,
		AutoPublish:       def.Settings.AutoPublish,
		QualityThreshold:  def.Settings.QualityThreshold,
		FallbackImageURL:  def.Settings.FallbackImageURL,
	}
}
