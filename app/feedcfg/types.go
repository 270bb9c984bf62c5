package feedcfg

// Definition is an operator-provided feed definition, one YAML file per feed.
// The feed name is derived from the filename.
type Definition struct {
	Name        string   // Derived from filename (without .yml extension)
	Kind        string   `yaml:"kind"` // rss | url_list
	URL         string   `yaml:"url"`
	URLs        []string `yaml:"urls"`
	ContentKind string   `yaml:"content_kind"`
	Interval    string   `yaml:"interval"`
	Priority    int      `yaml:"priority"`
	Settings    Settings `yaml:"settings"`
}

type Settings struct {
	Enabled           *bool    `yaml:"enabled"`
	Scraping          *bool    `yaml:"scraping"`
	AllowRepublishing bool     `yaml:"allow_republishing"`
	AI                *bool    `yaml:"ai"`
	AIProvider        string   `yaml:"ai_provider"`
	AIModel           string   `yaml:"ai_model"`
	AIAPIKey          string   `yaml:"ai_api_key"`
	AutoPublish       *bool    `yaml:"auto_publish"`
	QualityThreshold  *float64 `yaml:"quality_threshold"`
	FallbackImageURL  string   `yaml:"fallback_image"`
}
