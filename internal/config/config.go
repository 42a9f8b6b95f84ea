// Package config loads the tracker's JSON configuration file: per-network
// credentials, the raw page archive bucket, and Notion export settings.
// Secrets live in the file, not in flags, so process listings stay clean.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
)

// Notion holds the export settings for the Notion mirror.
type Notion struct {
	Token            string `json:"token"`
	TransactionsDBID string `json:"transactions_db_id"`
	MerchantsDBID    string `json:"merchants_db_id"`
}

// Config is the root of the configuration file.
type Config struct {
	// ArchiveBucket is the GCS bucket for raw page bodies. Empty disables
	// archiving.
	ArchiveBucket string `json:"archive_bucket"`

	Notion Notion `json:"notion"`

	// Networks maps registry names to their credentials.
	Networks map[string]affiliate.Credentials `json:"networks"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// CredentialsFor returns the credentials configured for a network.
func (c *Config) CredentialsFor(network string) (affiliate.Credentials, error) {
	creds, ok := c.Networks[network]
	if !ok {
		return affiliate.Credentials{}, fmt.Errorf("config: no credentials for network %q", network)
	}
	return creds, nil
}
