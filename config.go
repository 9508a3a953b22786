package changegate

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/changegate/remote/shell"
	"github.com/viant/changegate/service/pipeline"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the engine configuration. It
// can be populated from YAML or JSON; unset nested fields inherit their
// package defaults.
type Config struct {
	// Host is the legacy application host commands run on.
	Host shell.Host `json:"host" yaml:"host"`

	Compile  CompileConfig   `json:"compile" yaml:"compile"`
	Database DatabaseConfig  `json:"database" yaml:"database"`
	Pipeline pipeline.Config `json:"pipeline" yaml:"pipeline"`

	// BackupURL roots stored object backups; AttachmentURL roots uploaded
	// artifact content. Both accept any afs scheme.
	BackupURL     string `json:"backupURL" yaml:"backupURL"`
	AttachmentURL string `json:"attachmentURL" yaml:"attachmentURL"`

	// StoreURL, when set, persists requests and chains as JSON documents
	// under this URL instead of in memory.
	StoreURL string `json:"storeURL,omitempty" yaml:"storeURL,omitempty"`

	Events EventConfig `json:"events" yaml:"events"`
}

// CompileConfig holds the remote compiler settings. Credentials names a scy
// secret resource with the frmcmp_batch user.
type CompileConfig struct {
	Credentials string `json:"credentials" yaml:"credentials"`
	TimeoutMs   int    `json:"timeoutMs" yaml:"timeoutMs"`
}

// DatabaseConfig holds the settings used to extract object DDL. Connect is
// the host:port/service connect string; Credentials names a scy secret
// resource with the metadata user.
type DatabaseConfig struct {
	Credentials string `json:"credentials" yaml:"credentials"`
	Connect     string `json:"connect" yaml:"connect"`
	TimeoutMs   int    `json:"timeoutMs" yaml:"timeoutMs"`
}

// EventConfig selects the lifecycle event queue. Vendor is "memory" or
// "fs"; BaseURL roots the fs queue.
type EventConfig struct {
	Vendor  string `json:"vendor" yaml:"vendor"`
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

// DefaultConfig returns a Config with a local host and in-process defaults;
// callers adjust the returned struct before passing it to New.
func DefaultConfig() *Config {
	return &Config{
		Host:     shell.Host{URL: "bash://localhost/"},
		Compile:  CompileConfig{TimeoutMs: 120000},
		Database: DatabaseConfig{TimeoutMs: 60000},
		Pipeline: pipeline.Config{TimeoutMs: 300000},
		Events:   EventConfig{Vendor: "memory"},
	}
}

// Validate returns an error describing invalid settings, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Host.URL == "" {
		return fmt.Errorf("host.url is required")
	}
	if c.Compile.TimeoutMs < 0 || c.Database.TimeoutMs < 0 || c.Pipeline.TimeoutMs < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	switch c.Events.Vendor {
	case "", "memory":
	case "fs":
		if c.Events.BaseURL == "" {
			return fmt.Errorf("events.baseURL is required for the fs vendor")
		}
	default:
		return fmt.Errorf("unsupported events.vendor: %s", c.Events.Vendor)
	}
	return nil
}

// LoadConfig reads a YAML configuration from the supplied URL; any afs
// scheme works.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
