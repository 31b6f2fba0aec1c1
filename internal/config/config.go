package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GobWriterConfig configures the gob-to-disk snapshot writer.
type GobWriterConfig struct {
	RootPath string `yaml:"root_path"`
}

// TextWriterConfig configures the human-readable report writer.
type TextWriterConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds the connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef defines one snapshot writer instance.
type WriterDef struct {
	Type             string           `yaml:"type"` // gob | text | clickhouse
	Enabled          bool             `yaml:"enabled"`
	SnapshotInterval string           `yaml:"snapshot_interval"`
	Gob              GobWriterConfig  `yaml:"gob"`
	Text             TextWriterConfig `yaml:"text"`
	ClickHouse       ClickHouseConfig `yaml:"clickhouse"`
}

// EngineConfig holds the configuration for the airtime engine pipeline.
type EngineConfig struct {
	NumWorkers          int         `yaml:"num_workers"`
	SizeOfRecordChannel int         `yaml:"size_of_record_channel"`
	WindowDuration      string      `yaml:"window_duration"`
	CCKShortPreamble    bool        `yaml:"cck_short_preamble"`
	Writers             []WriterDef `yaml:"writers"`
}

// ProbeConfig holds the NATS settings for the capture probe transport.
type ProbeConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// APIConfig holds the HTTP API settings.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// AlerterRule defines one threshold checked against each window snapshot.
type AlerterRule struct {
	Name                    string  `yaml:"name"`
	ChannelID               string  `yaml:"channel_id"` // empty matches every channel
	MaxUtilization          float64 `yaml:"max_utilization"`
	MaxUnresolvableFraction float64 `yaml:"max_unresolvable_fraction"`
}

// AlerterConfig holds the configuration for the snapshot alerter.
type AlerterConfig struct {
	Enabled       bool          `yaml:"enabled"`
	CheckInterval string        `yaml:"check_interval"`
	Rules         []AlerterRule `yaml:"rules"`
}

// SMTPConfig holds the settings for the email notifier.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"` // comma-separated recipients
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Probe   ProbeConfig   `yaml:"probe"`
	API     APIConfig     `yaml:"api"`
	Alerter AlerterConfig `yaml:"alerter"`
	SMTP    SMTPConfig    `yaml:"smtp"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return &cfg, nil
}
