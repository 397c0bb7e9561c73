package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	DownloadDir     string `json:"download_dir"`
	BrowserWorkers  int    `json:"browser_workers"`
	DownloadWorkers int    `json:"download_workers"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	RetryCount      int    `json:"retry_count"`
	SettleSeconds   int    `json:"settle_seconds"`
	Headless        *bool  `json:"headless"`
	UserAgent       string `json:"user_agent"`
	LogFile         string `json:"log_file"`
	// Format is "images" for loose page files or "cbz" for comic archives.
	Format       string `json:"format"`
	DeleteImages bool   `json:"delete_images"`
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Marshal(cfg Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}
