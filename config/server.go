package config

import "os"

// ServerConfig defines the HTTP API settings.
type ServerConfig struct {
	IP    string `json:"ip"`
	Port  string `json:"port"`
	Token string `json:"token"`
}

// SetDefaults pulls SERVER_IP and SERVER_PORT from the environment.
func (c *ServerConfig) SetDefaults() {
	if v := os.Getenv("SERVER_IP"); v != "" {
		c.IP = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.Port = v
	}
	if c.Port == "" {
		c.Port = "8080"
	}
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string { return c.IP + ":" + c.Port }
