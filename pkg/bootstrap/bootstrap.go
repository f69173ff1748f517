// Package bootstrap builds the storage, event and booking stack selected by config.App.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/spot-booking-ledger/pkg/booking"
	"github.com/chris/spot-booking-ledger/pkg/capacity"
	"github.com/chris/spot-booking-ledger/pkg/config"
	"github.com/chris/spot-booking-ledger/pkg/events"
	"github.com/chris/spot-booking-ledger/pkg/ledger"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	dydbstore "github.com/chris/spot-booking-ledger/pkg/storage/dynamodb"
	"github.com/chris/spot-booking-ledger/pkg/storage/memory"
	"github.com/chris/spot-booking-ledger/pkg/storage/postgres"
)

// App holds the wired services.
type App struct {
	Store     storage.Storage
	Publisher events.Publisher
	Ledger    *ledger.Ledger
	Bookings  *booking.Service

	closers []func() error
}

// New wires the service stack described by cfg.
func New(ctx context.Context, cfg config.App, logger *slog.Logger) (*App, error) {
	app := &App{}

	store, err := app.newStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	publisher, err := app.newPublisher(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Publisher = publisher

	app.Ledger = ledger.New(store,
		ledger.WithLogger(logger),
		ledger.WithPublisher(publisher),
	)
	app.Bookings = booking.NewService(store, capacity.NewManager(store), app.Ledger,
		booking.WithLogger(logger),
		booking.WithPublisher(publisher),
		booking.WithOvertimePolicy(booking.OvertimePolicy(cfg.OvertimeOverdraft)),
	)
	return app, nil
}

func (a *App) newStore(ctx context.Context, cfg config.App) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		return dydbstore.New(dynamodb.NewFromConfig(awsCfg), dydbstore.TableNames{
			Accounts: cfg.AccountsTable,
			Ledger:   cfg.LedgerTable,
			Spots:    cfg.SpotsTable,
			Bookings: cfg.BookingsTable,
		}), nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		store := postgres.New(pool)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func (a *App) newPublisher(ctx context.Context, cfg config.App) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsSQS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		return events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL), nil

	case config.EventsAMQP:
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		return pub, nil

	case config.EventsNone:
		return &events.NoOpPublisher{}, nil
	}
	return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
