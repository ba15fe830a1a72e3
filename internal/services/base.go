package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/anonto42/snapreel/backend/pkg/metrics"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultMaxTxAttempts = 5
	defaultReceiptWindow = 2 * time.Minute
)

var noOpLogger = zap.NewNop()

// Config holds the dependencies shared by every service.
type Config struct {
	Database *gorm.DB
	Logger   *zap.Logger
	Clock    func() time.Time
	// TxOptions is passed to every transaction. Production sets serializable
	// isolation on Postgres; nil keeps the driver default.
	TxOptions *sql.TxOptions
	// MaxTxAttempts bounds how often a transaction is re-run after a
	// serialization failure or a unique violation from a racing writer.
	MaxTxAttempts int
	// ReceiptWindow is how long a toggle idempotency key is honoured.
	ReceiptWindow time.Duration
}

type base struct {
	db          *gorm.DB
	logger      *zap.Logger
	clock       func() time.Time
	txOptions   *sql.TxOptions
	maxAttempts int
}

func newBase(op string, cfg Config) (base, error) {
	if cfg.Database == nil {
		return base{}, newError(op, KindInternal, "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	attempts := cfg.MaxTxAttempts
	if attempts <= 0 {
		attempts = defaultMaxTxAttempts
	}
	return base{
		db:          cfg.Database,
		logger:      logger,
		clock:       clock,
		txOptions:   cfg.TxOptions,
		maxAttempts: attempts,
	}, nil
}

func (b *base) now() time.Time {
	return b.clock().UTC()
}

// runInTx executes fn in one transaction and re-runs the whole transaction
// when the store reports a serialization failure, a deadlock or a unique
// violation caused by a concurrent writer.
func (b *base) runInTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		if b.txOptions != nil {
			err = b.db.WithContext(ctx).Transaction(fn, b.txOptions)
		} else {
			err = b.db.WithContext(ctx).Transaction(fn)
		}
		if err == nil || !isRetryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		metrics.RecordTxRetry(op)
		b.logger.Debug("retrying transaction",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	b.logError(op, "retries_exhausted", err, zap.Int("attempts", b.maxAttempts))
	return newError(op, KindInternal, "retries_exhausted", err)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return true
		}
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (b *base) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	b.logger.Error("service error", attrs...)
}

// storeError wraps an unexpected store failure and logs it.
func (b *base) storeError(op, reason string, err error, fields ...zap.Field) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	b.logError(op, reason, err, fields...)
	return newError(op, KindInternal, reason, err)
}
