// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"

	EventsNone = "none"
	EventsSQS  = "sqs"
	EventsAMQP = "amqp"
)

type App struct {
	// HTTP
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	// Storage
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"memory"`
	AccountsTable  string `envconfig:"DYNAMODB_ACCOUNTS_TABLE_NAME"`
	LedgerTable    string `envconfig:"DYNAMODB_LEDGER_TABLE_NAME"`
	SpotsTable     string `envconfig:"DYNAMODB_SPOTS_TABLE_NAME"`
	BookingsTable  string `envconfig:"DYNAMODB_BOOKINGS_TABLE_NAME"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`

	// Events
	EventsBackend string `envconfig:"EVENTS_BACKEND" default:"none"`
	SQSQueueURL   string `envconfig:"SQS_QUEUE_URL"`
	AMQPURL       string `envconfig:"AMQP_URL"`
	AMQPExchange  string `envconfig:"AMQP_EXCHANGE" default:"parking.events"`

	// Booking
	OvertimeOverdraft string `envconfig:"OVERTIME_OVERDRAFT" default:"allow"`

	// Tracing
	OtelEnabled bool   `envconfig:"OTEL_ENABLED" default:"false"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"spot-booking-ledger"`
}

// Load reads a .env file when present, then parses the environment.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate checks that the selected backends have what they need.
func (c App) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendDynamoDB:
		if c.AccountsTable == "" || c.LedgerTable == "" || c.SpotsTable == "" || c.BookingsTable == "" {
			return fmt.Errorf("one or more DynamoDB table name environment variables are not set")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.EventsBackend {
	case EventsNone:
	case EventsSQS:
		if c.SQSQueueURL == "" {
			return fmt.Errorf("SQS_QUEUE_URL environment variable not set")
		}
	case EventsAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL environment variable not set")
		}
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}

	switch c.OvertimeOverdraft {
	case "allow", "deny":
	default:
		return fmt.Errorf("OVERTIME_OVERDRAFT must be allow or deny, got %q", c.OvertimeOverdraft)
	}
	return nil
}
