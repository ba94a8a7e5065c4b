package config

import (
	"log"
	"os"
	"path"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	IsDebug             bool    `toml:"debug"`
	LogFilePath         string  `toml:"log_file_path"`
	DBPath              string  `toml:"db_path"`
	JournalDir          string  `toml:"journal_dir"`
	QuarantineEnabled   bool    `toml:"quarantine_enabled"`
	QuarantineDir       string  `toml:"quarantine_dir"`
	DedupeMode          string  `toml:"dedupe_mode"`
	DupeDir             string  `toml:"dupe_dir"`
	LayoutTemplate      string  `toml:"layout_template"`
	PreferLossless      bool    `toml:"prefer_lossless"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	AutoAcceptAbove     float64 `toml:"auto_accept_above"`
	RequireReviewBelow  float64 `toml:"require_review_below"`
	Jobs                int64   `toml:"jobs"`
}

func Load(defaultConfigData []byte) (*Config, error) {
	configFile := "config.toml"
	_, err := os.Stat(configFile)

	if err != nil {
		log.Print("No config file found. Creating a new config file...")
		err := os.WriteFile(configFile, defaultConfigData, 0600)

		if err != nil {
			return nil, err
		}
	}

	return parseConfigFile(configFile)
}

func parseConfigFile(configFilePath string) (*Config, error) {
	tomlFile, err := os.ReadFile(path.Clean(configFilePath))

	if err != nil {
		return nil, err
	}

	config := &Config{}

	err = toml.Unmarshal(tomlFile, config)

	if err != nil {
		return nil, err
	}

	return config, nil
}
