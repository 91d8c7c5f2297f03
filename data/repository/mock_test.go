package repository

import (
	"regexp"
	"testing"
	"time"

	"eventdesk/data/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, time.May, 10, 14, 30, 0, 0, time.UTC)

func init() {
	models.PasswordCost = bcrypt.MinCost
}

// newMockRepo returns a repository over a sqlmock connection with a fixed
// clock. Expectations are checked when the test ends.
func newMockRepo(t *testing.T) (*SqlRepo, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewSqlRepo(db, nil)
	repo.Now = func() time.Time { return fixedNow }

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return repo, mock
}

// lit turns a literal SQL fragment into a sqlmock expectation pattern.
func lit(sql string) string {
	return regexp.QuoteMeta(sql)
}

func idRow(name string, id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{name}).AddRow(id)
}

func pgErr(code, constraint string) error {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func eventColumns() []string {
	return models.GetColumnNames(&models.Event{}, false)
}

func notificationColumns() []string {
	return models.GetColumnNames(&models.Notification{}, false)
}
