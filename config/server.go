package config

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Address             string `json:"address"`
	ShutdownTimeoutSecs int    `json:"shutdown_timeout_seconds"`
}

// SetDefaults applies default values.
func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":5000"
	}
	if c.ShutdownTimeoutSecs <= 0 {
		c.ShutdownTimeoutSecs = 10
	}
}
