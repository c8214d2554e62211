package config

// Default configuration values.
const (
	DefaultDriver           = "postgres"
	DefaultMaxAttempts      = 3
	DefaultStatementTimeout = "30s"
	DefaultRowLimit         = 100
	DefaultSampleRows       = 3
	DefaultOutput           = "table"
	DefaultLLMProvider      = "anthropic"
)

// DefaultSchemaForDriver returns the default schema for a driver.
func DefaultSchemaForDriver(driver string) string {
	switch driver {
	case "postgres":
		return "public"
	default:
		return "main"
	}
}

// ApplyTargetDefaults fills in driver-dependent defaults on a target.
func ApplyTargetDefaults(d *DatabaseConfig) {
	if d == nil {
		return
	}
	if d.Driver == "" {
		d.Driver = DefaultDriver
	}
	if d.Schema == "" {
		d.Schema = DefaultSchemaForDriver(d.Driver)
	}
	if d.Driver == "postgres" {
		if d.Host == "" {
			d.Host = "localhost"
		}
		if d.Port == 0 {
			d.Port = 5432
		}
	}
}
