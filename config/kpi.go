package config

// KPIConfig defines where daily charging KPIs are stored.
type KPIConfig struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *KPIConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "kpi.db"
	}
}
