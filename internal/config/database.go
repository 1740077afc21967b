// internal/config/database.go
package config

import (
	"fmt"
)

// DSN renders the connection string for the configured driver.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverMySQL:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Database,
		)
	case DriverSQLite:
		return d.Path
	default:
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
		)
	}
}
