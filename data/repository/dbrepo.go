package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventdesk/data/migrations"
	"eventdesk/data/models"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

type DBRepo interface {
	Connection() *sql.DB
	RunMigrations(dbName string) error

	// Event Directory
	CreateEvent(ctx context.Context, in models.EventInput, sessions []models.SessionInput) (int64, error)
	GetEvent(ctx context.Context, eventID int64) (models.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID int64) ([]models.Event, error)
	ListAllEvents(ctx context.Context, filter models.EventFilter, queryParams map[string]string) ([]models.Event, error)
	ListRegisteredEvents(ctx context.Context, userID int64) ([]models.Event, error)
	UpdateEvent(ctx context.Context, eventID int64, upd models.EventUpdate) error
	DeleteEvent(ctx context.Context, eventID int64) error

	// Session Management
	AddSession(ctx context.Context, eventID int64, in models.SessionInput) (int64, error)
	GetSession(ctx context.Context, sessionID int64) (models.Session, error)
	ListSessions(ctx context.Context, eventID int64) ([]models.Session, error)
	UpdateSession(ctx context.Context, sessionID int64, in models.SessionInput) error
	DeleteSession(ctx context.Context, sessionID int64) error
	DeleteSessionsForEvent(ctx context.Context, eventID int64) (int64, error)

	// Registration Management
	RegisterForEvent(ctx context.Context, userID, eventID int64) (int64, error)
	CancelRegistration(ctx context.Context, userID, eventID int64) error
	IsRegistered(ctx context.Context, userID, eventID int64) (bool, error)
	ListRegistrationsForEvent(ctx context.Context, eventID int64) ([]models.Registration, error)

	// Notification Center
	InsertNotification(ctx context.Context, in models.NotificationInput) (int64, error)
	GetNotification(ctx context.Context, notificationID int64) (models.Notification, error)
	ListNotifications(ctx context.Context, userID int64, filter models.ReadFilter, typeFilter string) ([]models.Notification, error)
	SetReadStatus(ctx context.Context, notificationID int64, isRead bool) error
	DeleteNotification(ctx context.Context, notificationID int64) error
	ClearAllRead(ctx context.Context, userID int64, typeFilter string) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)

	// User Directory
	Authenticate(ctx context.Context, username, password string) (models.AuthResult, error)
	RegisterUser(ctx context.Context, in models.UserInput) (int64, error)
	GetUser(ctx context.Context, userID int64) (models.User, error)
	UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) error
	ChangePassword(ctx context.Context, userID int64, newPassword string) error
	DeleteUser(ctx context.Context, userID int64) error
}

// SqlRepo implements DBRepo on a *sql.DB pool owned by the caller.
type SqlRepo struct {
	DB  *sql.DB
	Log *zerolog.Logger
	// Now is the clock used for timestamps and date filters; time.Now when nil.
	Now func() time.Time
}

func NewSqlRepo(db *sql.DB, log *zerolog.Logger) *SqlRepo {
	return &SqlRepo{DB: db, Log: log}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (sr *SqlRepo) Connection() *sql.DB {
	return sr.DB
}

func (sr *SqlRepo) now() time.Time {
	if sr.Now != nil {
		return sr.Now()
	}
	return time.Now()
}

func (sr *SqlRepo) logger() *zerolog.Logger {
	if sr.Log == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return sr.Log
}

// RunMigrations applies the embedded schema migrations.
func (sr *SqlRepo) RunMigrations(dbName string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := migratepgx.WithInstance(sr.DB, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	sr.logger().Info().Str("database", dbName).Msg("migrations complete")
	return nil
}

// fail classifies err and logs it when it is an unexpected database failure.
func (sr *SqlRepo) fail(op string, err error) error {
	cerr := classify(op, err)
	var re *Error
	if errors.As(cerr, &re) && errors.Is(re.Kind, ErrPersistence) {
		sr.logger().Error().Err(re.Cause()).Str("op", op).Msg("database operation failed")
	}
	return cerr
}

// withTx runs fn inside a transaction, rolling back when fn returns an error
// or panics. Errors returned by fn are passed through unchanged.
func (sr *SqlRepo) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := sr.DB.BeginTx(ctx, nil)
	if err != nil {
		return sr.fail(op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			sr.logger().Warn().Err(rbErr).Str("op", op).Msg("rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return sr.fail(op, err)
	}
	return nil
}

// insertModel inserts a model into its table and returns the generated
// primary key.
func (sr *SqlRepo) insertModel(ctx context.Context, q queryer, m models.Model) (int64, error) {
	vals := models.GetValsFromModel(m)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		models.QuoteIdent(m.TableName()),
		quoteAll(models.GetColumnNames(m, true)),
		placeholders(len(vals)),
		models.QuoteIdent(m.PrimaryKey()))

	var id int64
	if err := q.QueryRowContext(ctx, query, vals...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("insert into %s returned no key", m.TableName())
		}
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("insert into %s returned no key", m.TableName())
	}
	return id, nil
}

// getModelByID loads the row with the given primary key into m, which must
// be a pointer.
func (sr *SqlRepo) getModelByID(ctx context.Context, q queryer, m models.Model, id int64) error {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		selectList(m, ""),
		models.QuoteIdent(m.TableName()),
		models.QuoteIdent(m.PrimaryKey()))

	return models.ScanRowToModel(m, q.QueryRowContext(ctx, query, id))
}

// listModels runs a SELECT of m's columns with the given trailing clauses and
// returns the scanned slice (a pointer to []T, as returned by m.EmptySlice).
func (sr *SqlRepo) listModels(ctx context.Context, q queryer, m models.Model, clauses string, expectedRows int, args ...interface{}) (interface{}, error) {
	query := fmt.Sprintf("SELECT %s FROM %s %s",
		selectList(m, ""),
		models.QuoteIdent(m.TableName()),
		clauses)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return models.ScanRowsToSliceOfModels(m, rows, expectedRows)
}

// deleteByID deletes the row with the given primary key and reports the
// number of rows removed.
func (sr *SqlRepo) deleteByID(ctx context.Context, q queryer, m models.Model, id int64) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		models.QuoteIdent(m.TableName()),
		models.QuoteIdent(m.PrimaryKey()))

	res, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// execAffecting runs a statement and reports ErrNotFound when it touched no
// rows.
func (sr *SqlRepo) execAffecting(ctx context.Context, q queryer, op, what, query string, args ...interface{}) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return sr.fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return sr.fail(op, err)
	}
	if n == 0 {
		return notFound(op, what)
	}
	return nil
}

func selectList(m models.Model, alias string) string {
	exprs := models.GetSelectExprs(m)
	if alias != "" {
		for i, e := range exprs {
			exprs[i] = alias + "." + e
		}
	}
	return strings.Join(exprs, ", ")
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = models.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := 1; i <= n; i++ {
		ph[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(ph, ", ")
}

func requireID(op, name string, id int64) error {
	if id <= 0 {
		return newError(op, ErrValidation, name+" must be a positive id")
	}
	return nil
}
