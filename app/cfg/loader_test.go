package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestApplyTimezone(t *testing.T) {
	original := time.Local
	defer func() { time.Local = original }()

	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC to be valid, got %v", err)
	}
	if time.Local.String() != "UTC" {
		t.Errorf("Expected local timezone UTC, got %s", time.Local.String())
	}

	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}

	if err := applyTimezone(""); err != nil {
		t.Errorf("Expected empty timezone to be a no-op, got %v", err)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Port:              "8080",
		BaseUrl:           "https://harvester.example.com",
		SchedulerInterval: 300,
		FeedsDir:          "./feeds",
		ImagesDir:         "./images",
		Timezone:          "UTC",
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.BaseUrl != "https://harvester.example.com" {
		t.Errorf("Expected base URL 'https://harvester.example.com', got '%s'", cfg.BaseUrl)
	}
	if cfg.SchedulerInterval != 300 {
		t.Errorf("Expected scheduler interval 300, got %d", cfg.SchedulerInterval)
	}
}
