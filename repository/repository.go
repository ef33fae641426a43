package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"intakebot/repository/models"
)

// PostgreSQL error codes as constants
const (
	// Class 23 — Integrity Constraint Violation
	PgErrForeignKeyViolation = "23503" // foreign_key_violation
	PgErrUniqueViolation     = "23505" // unique_violation
	PgErrNotNullViolation    = "23502" // not_null_violation

	// Class 08 — Connection Exception
	PgErrConnectionException = "08000" // connection_exception
	PgErrConnectionFailure   = "08006" // connection_failure

	// Class 40 — Transaction Rollback
	PgErrTransactionRollback = "40000" // transaction_rollback

	// Class 53 — Insufficient Resources
	PgErrInsufficientResources = "53000" // insufficient_resources
	PgErrDiskFull              = "53100" // disk_full
)

// StorageError represents an error in the storage layer
type StorageError struct {
	Code    string
	Message string
	Detail  string
}

func (e *StorageError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
}

// Repository persists submissions in Postgres and enforces the retention
// window over them.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRepository(logger *zap.Logger) *Repository {
	return &Repository{
		logger: logger,
	}
}

// ConnectDB opens the Postgres connection, retrying a few times so the bot
// can start before the database container is ready.
func (r *Repository) ConnectDB(dsn string) error {
	var lastErr error
	for i := 0; i < 10; i++ {
		db, err := gorm.Open(postgres.Open(dsn))
		if err == nil {
			r.db = db
			r.logger.Info("connected to postgres")
			return nil
		}
		lastErr = err
		r.logger.Warn("postgres connection attempt failed",
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
		time.Sleep(2 * time.Second)
	}
	return &StorageError{
		Code:    "CONNECTION_FAILED",
		Message: "could not connect to postgres",
		Detail:  lastErr.Error(),
	}
}

// Migrate creates the submissions table if it does not exist yet.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&models.Submission{}); err != nil {
		return translateError(err)
	}
	r.logger.Info("database migration completed")
	return nil
}

// InsertSubmission writes one completed submission. The write is atomic:
// either the full row lands, with id and created_at assigned by the
// database, or nothing does. Partial submissions are rejected before any
// statement runs.
func (r *Repository) InsertSubmission(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	if !sub.Complete() {
		return nil, &StorageError{
			Code:    "INCOMPLETE_SUBMISSION",
			Message: "refusing to persist a partial submission",
		}
	}

	row := models.Submission{
		SubmitterID: sub.SubmitterID,
		FullName:    sub.FullName,
		Address:     sub.Address,
		Kin1:        sub.Kin1,
		Kin2:        sub.Kin2,
		Phone:       sub.Phone,
		IDCardDoc:   sub.IDCardDoc,
		PsychDoc:    sub.PsychDoc,
		NarcDoc:     sub.NarcDoc,
	}

	dbTx := r.db.WithContext(ctx).Begin()
	if err := dbTx.Create(&row).Error; err != nil {
		dbTx.Rollback()
		return nil, translateError(err)
	}
	if err := dbTx.Commit().Error; err != nil {
		return nil, &StorageError{
			Code:    "COMMIT_FAILED",
			Message: "failed to commit submission",
			Detail:  err.Error(),
		}
	}

	return &row, nil
}

// PurgeExpired deletes every submission older than maxAge and reports how
// many rows went. Calling it again with nothing newly expired removes zero
// rows and still succeeds. It runs in its own transaction, never sharing one
// with an insert.
func (r *Repository) PurgeExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Submission{})
	if res.Error != nil {
		return 0, translateError(res.Error)
	}
	return res.RowsAffected, nil
}

// translateError maps a gorm/pgx error onto a StorageError, preserving the
// Postgres error code when one is present.
func translateError(err error) *StorageError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &StorageError{
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Detail:  pgErr.Detail,
		}
	}
	return &StorageError{
		Code:    "DATABASE_ERROR",
		Message: "database error occured",
		Detail:  err.Error(),
	}
}
