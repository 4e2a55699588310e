package config

import "fmt"

// DatabaseConfig locates the rental history.
type DatabaseConfig struct {
	// Driver is "sqlite", "postgres" or "pgx".
	Driver string `json:"driver"`
	// ConnectionString is handed to the driver unchanged.
	ConnectionString string `json:"connection_string"`
	// QueryTimeoutSeconds bounds the rental query. 0 disables the timeout.
	QueryTimeoutSeconds int `json:"query_timeout_seconds"`
}

// SetDefaults applies default values.
func (c *DatabaseConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
}

// Validate checks the driver name and connection string.
func (c DatabaseConfig) Validate() error {
	switch c.Driver {
	case "sqlite", "postgres", "pgx":
	default:
		return fmt.Errorf("unknown database driver %s", c.Driver)
	}
	if c.ConnectionString == "" {
		return fmt.Errorf("database connection_string is required")
	}
	if c.QueryTimeoutSeconds < 0 {
		return fmt.Errorf("query_timeout_seconds must not be negative")
	}
	return nil
}
