package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port          string
	SessionSecret string

	// Google Sheets reference data
	GoogleSpreadsheetID string
	PersonsWorksheet    string
	WorkCodesWorksheet  string
	ProcessesWorksheet  string
	CatalogTTL          time.Duration

	// Record store
	RecordsBackend string
	AirtableToken  string
	AirtableBaseID string
	SQLiteDBPath   string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		SessionSecret: getEnv("SESSION_SECRET", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		PersonsWorksheet:    getEnv("PERSONS_WORKSHEET", "wsPersonID"),
		WorkCodesWorksheet:  getEnv("WORK_CODES_WORKSHEET", "wsTableCD"),
		ProcessesWorksheet:  getEnv("PROCESSES_WORKSHEET", "wsWorkProcess"),
		CatalogTTL:          getEnvDuration("CATALOG_TTL", 5*time.Minute),

		RecordsBackend: getEnv("RECORDS_BACKEND", "memory"),
		AirtableToken:  getEnv("AIRTABLE_TOKEN", ""),
		AirtableBaseID: getEnv("AIRTABLE_BASE_ID", ""),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/worklog.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "worklog"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_events"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SessionSecret == "" {
		errors = append(errors, "SESSION_SECRET must be set")
	} else if len(c.SessionSecret) < 16 {
		errors = append(errors, "SESSION_SECRET must be at least 16 characters")
	}

	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID must be set")
	}
	if c.PersonsWorksheet == "" {
		errors = append(errors, "persons worksheet name cannot be empty")
	}
	if c.WorkCodesWorksheet == "" {
		errors = append(errors, "work codes worksheet name cannot be empty")
	}
	if c.ProcessesWorksheet == "" {
		errors = append(errors, "processes worksheet name cannot be empty")
	}
	if c.CatalogTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid catalog TTL %v: must be at least 1 second", c.CatalogTTL))
	} else if c.CatalogTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid catalog TTL %v: must be at most 24 hours", c.CatalogTTL))
	}

	// Validate records backend
	validBackends := []string{"memory", "airtable", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.RecordsBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid records backend '%s': must be one of %v", c.RecordsBackend, validBackends))
	}

	// Validate Airtable configuration if backend is airtable
	if c.RecordsBackend == "airtable" {
		if c.AirtableToken == "" {
			errors = append(errors, "AIRTABLE_TOKEN is required when using airtable backend")
		}
		if c.AirtableBaseID == "" {
			errors = append(errors, "AIRTABLE_BASE_ID is required when using airtable backend")
		}
	}

	// Validate SQLite configuration if backend is sqlite
	if c.RecordsBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
