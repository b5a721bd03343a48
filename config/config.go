// Package config loads the service configuration from a JSON or YAML file
// with environment overrides, the sections validating themselves.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/voltplan/voltplan/core/factory"
	coremetrics "github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/scheduler"
	"github.com/voltplan/voltplan/infra/mqtt"
)

type Config struct {
	Database  DatabaseConfig     `json:"database"`
	Server    ServerConfig       `json:"server"`
	MQTT      mqtt.Config        `json:"mqtt"`
	Metrics   coremetrics.Config `json:"metrics"`
	Audit     AuditConfig        `json:"audit"`
	KPI       KPIConfig          `json:"kpi"`
	Scheduler scheduler.Config   `json:"scheduler"`
	Sentry    SentryConfig       `json:"sentry"`
	Provider  ProviderConfig     `json:"provider"`
	// Prediction optionally overrides the history-based routine predictor
	// with a registered plugin (see app/plugins).
	Prediction factory.ModuleConfig `json:"prediction"`
}

// ProviderConfig names the adapter actions are addressed to.
type ProviderConfig struct {
	Name string `json:"name"`
}

// SetDefaults applies sane defaults.
func (c *ProviderConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "tesla"
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides.
	if err := k.Load(env.Provider("VP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "vp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Database.SetDefaults()
	cfg.Server.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.KPI.SetDefaults()
	cfg.Scheduler.SetDefaults()
	cfg.Provider.SetDefaults()
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Scheduler.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
