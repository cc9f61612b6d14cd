package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	MongoDB struct {
		URI                   string `yaml:"uri"`
		Database              string `yaml:"database"`
		CredentialsCollection string `yaml:"credentials_collection"`
		ReportsCollection     string `yaml:"reports_collection"`
	} `yaml:"mongodb"`
	Terminal struct {
		Path         string `yaml:"path"`
		ReportDir    string `yaml:"report_dir"`
		Server       string `yaml:"server"`
		LoginScript  string `yaml:"login_script"`
		ReportScript string `yaml:"report_script"`
	} `yaml:"terminal"`
	Timeouts struct {
		Launch        string `yaml:"launch"`
		Auth          string `yaml:"auth"`
		ReportRequest string `yaml:"report_request"`
		Artifact      string `yaml:"artifact"`
		PollInterval  string `yaml:"poll_interval"`
	} `yaml:"timeouts"`
	Pipeline struct {
		InterAccountDelay string `yaml:"inter_account_delay"`
		LocalSave         *bool  `yaml:"local_save"`
		LocalDir          string `yaml:"local_dir"`
	} `yaml:"pipeline"`
}

// Durations is the parsed form of the timeout strings.
type Durations struct {
	Launch            time.Duration
	Auth              time.Duration
	ReportRequest     time.Duration
	Artifact          time.Duration
	PollInterval      time.Duration
	InterAccountDelay time.Duration
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.MongoDB.URI = v
	}
	if v := os.Getenv("MONGODB_DATABASE"); v != "" {
		cfg.MongoDB.Database = v
	}
	if v := os.Getenv("MT5_PATH"); v != "" {
		cfg.Terminal.Path = v
	}
	if v := os.Getenv("REPORT_DIR"); v != "" {
		cfg.Terminal.ReportDir = v
	}
	if v := os.Getenv("MT5_SERVER"); v != "" {
		cfg.Terminal.Server = v
	}

	// Defaults
	if cfg.MongoDB.Database == "" {
		cfg.MongoDB.Database = "test"
	}
	if cfg.MongoDB.CredentialsCollection == "" {
		cfg.MongoDB.CredentialsCollection = "credentialkeys"
	}
	if cfg.MongoDB.ReportsCollection == "" {
		cfg.MongoDB.ReportsCollection = "credentials_reports"
	}
	if cfg.Terminal.Server == "" {
		cfg.Terminal.Server = "MetaQuotes-Demo"
	}
	if cfg.Timeouts.Launch == "" {
		cfg.Timeouts.Launch = "30s"
	}
	if cfg.Timeouts.Auth == "" {
		cfg.Timeouts.Auth = "20s"
	}
	if cfg.Timeouts.ReportRequest == "" {
		cfg.Timeouts.ReportRequest = "15s"
	}
	if cfg.Timeouts.Artifact == "" {
		cfg.Timeouts.Artifact = "60s"
	}
	if cfg.Timeouts.PollInterval == "" {
		cfg.Timeouts.PollInterval = "2s"
	}
	if cfg.Pipeline.InterAccountDelay == "" {
		cfg.Pipeline.InterAccountDelay = "5s"
	}
	if cfg.Pipeline.LocalDir == "" {
		cfg.Pipeline.LocalDir = "reports"
	}

	return cfg, nil
}

// LocalSaveEnabled reports whether degraded runs may fall back to local JSON
// files. Enabled unless the config explicitly turns it off.
func (c *Config) LocalSaveEnabled() bool {
	return c.Pipeline.LocalSave == nil || *c.Pipeline.LocalSave
}

// ParseDurations converts every timeout string into a time.Duration.
func (c *Config) ParseDurations() (Durations, error) {
	var d Durations
	for _, f := range []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"timeouts.launch", c.Timeouts.Launch, &d.Launch},
		{"timeouts.auth", c.Timeouts.Auth, &d.Auth},
		{"timeouts.report_request", c.Timeouts.ReportRequest, &d.ReportRequest},
		{"timeouts.artifact", c.Timeouts.Artifact, &d.Artifact},
		{"timeouts.poll_interval", c.Timeouts.PollInterval, &d.PollInterval},
		{"pipeline.inter_account_delay", c.Pipeline.InterAccountDelay, &d.InterAccountDelay},
	} {
		v, err := time.ParseDuration(f.value)
		if err != nil {
			return Durations{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if v <= 0 && f.name != "pipeline.inter_account_delay" {
			return Durations{}, fmt.Errorf("%s must be positive", f.name)
		}
		if v < 0 {
			return Durations{}, fmt.Errorf("%s must not be negative", f.name)
		}
		*f.dst = v
	}
	return d, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.MongoDB.Database == "" {
		return fmt.Errorf("mongodb.database is required")
	}
	if c.MongoDB.CredentialsCollection == "" {
		return fmt.Errorf("mongodb.credentials_collection is required")
	}
	if c.MongoDB.ReportsCollection == "" {
		return fmt.Errorf("mongodb.reports_collection is required")
	}
	if _, err := c.ParseDurations(); err != nil {
		return err
	}
	return nil
}

// ValidateMongo checks the settings needed to reach the document store.
func (c *Config) ValidateMongo() error {
	if c.MongoDB.URI == "" {
		return fmt.Errorf("mongodb.uri is required (set MONGODB_URI)")
	}
	return nil
}

// ValidateTerminal checks the settings needed to drive the terminal.
func (c *Config) ValidateTerminal() error {
	if c.Terminal.Path == "" {
		return fmt.Errorf("terminal.path is required (set MT5_PATH)")
	}
	if c.Terminal.ReportDir == "" {
		return fmt.Errorf("terminal.report_dir is required (set REPORT_DIR)")
	}
	if c.Terminal.LoginScript == "" {
		return fmt.Errorf("terminal.login_script is required")
	}
	if c.Terminal.ReportScript == "" {
		return fmt.Errorf("terminal.report_script is required")
	}
	return nil
}
