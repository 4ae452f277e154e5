/**
 * @description
 * Store is the persistence context for companies, earnings calls, analyses and queries.
 * It is constructed once per process and passed explicitly to every collaborator.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/go-playground/validator/v10
 * - backend/internal/events
 *
 * @notes
 * - All reads and writes happen inside Do, one transaction per request operation.
 * - Inside fn use only the UnitOfWork; touching the Store again from fn would need a second
 *   connection, which a SQLite pool does not have.
 */

package store

import (
	"context"
	"time"

	"github.com/earnings-navigator/backend/internal/events"
	"github.com/earnings-navigator/backend/internal/logger"
	"github.com/earnings-navigator/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const publishTimeout = 3 * time.Second

// Store owns the connection pool and the schema
type Store struct {
	db        *gorm.DB
	prePing   bool
	publisher events.Publisher
	validate  *validator.Validate
	now       func() time.Time
}

// Option customizes a Store
type Option func(*Store)

// WithPublisher sets where record-created events go after commit
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithPrePing enables a liveness check before each unit of work
func WithPrePing(enabled bool) Option {
	return func(s *Store) {
		s.prePing = enabled
	}
}

// New wraps an open gorm connection
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:        db,
		publisher: events.Nop{},
		validate:  validator.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init creates missing tables, columns and indexes. It never drops or rewrites data.
func (s *Store) Init(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return wrap("init", "schema", err)
	}
	logger.Info("✅ Schema ready (%d tables)", len(models.All()))
	return nil
}

// Ping checks that the store is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("ping", "store", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return wrap("ping", "store", err)
	}
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("close", "store", err)
	}
	return sqlDB.Close()
}

// Publisher returns the configured event publisher
func (s *Store) Publisher() events.Publisher {
	return s.publisher
}

// Do runs fn inside one transaction. The transaction commits when fn returns nil and rolls
// back when fn returns an error or panics; the connection is released either way.
// Errors returned by fn are passed through unchanged.
func (s *Store) Do(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	if s.prePing {
		if err := s.Ping(ctx); err != nil {
			return err
		}
	}

	var fnErr error
	var created []events.Event

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uow := newUnitOfWork(tx, s)
		if fnErr = fn(uow); fnErr != nil {
			return fnErr
		}
		created = uow.created
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return wrap("commit", "transaction", err)
	}

	s.publish(ctx, created)
	return nil
}

// publish delivers events for committed rows. The rows are already durable, so a failed
// publish is logged rather than reported as a failed operation.
func (s *Store) publish(ctx context.Context, evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, evts...); err != nil {
		logger.Error("Store: failed to publish %d events via %s: %v", len(evts), s.publisher.Name(), err)
	}
}
