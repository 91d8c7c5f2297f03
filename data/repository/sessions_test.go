package repository

import (
	"context"
	"testing"

	"eventdesk/data/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionColumns() []string {
	return models.GetColumnNames(&models.Session{}, false)
}

func TestAddSession(t *testing.T) {
	ctx := context.Background()
	in := models.SessionInput{Title: "Workshop", Location: "Room 2", StartTime: "13:00", EndTime: "14:15"}

	t.Run("inserts", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(lit(insertSessionQuery)).
			WithArgs(int64(7), "Workshop", "", "Room 2", "13:00", "14:15", nil).
			WillReturnRows(idRow("sessionID", 12))

		id, err := repo.AddSession(ctx, 7, in)
		require.NoError(t, err)
		assert.Equal(t, int64(12), id)
	})

	t.Run("bad time", func(t *testing.T) {
		repo, _ := newMockRepo(t)

		bad := in
		bad.StartTime = "25:00"
		_, err := repo.AddSession(ctx, 7, bad)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown event", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(lit(insertSessionQuery)).WillReturnError(pgErr(pgerrcode.ForeignKeyViolation, "session_event_fk"))

		_, err := repo.AddSession(ctx, 99, in)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListSessions(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(lit(`SELECT "sessionID", "eventID", "title", "description", "location", to_char("startTime", 'HH24:MI'), to_char("endTime", 'HH24:MI'), COALESCE("speakerName", '') FROM "Session" WHERE "eventID" = $1 ORDER BY "startTime", "sessionID"`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(sessionColumns()).
			AddRow(1, 7, "Keynote", "", "Main hall", "09:00", "10:00", "Ana").
			AddRow(2, 7, "Panel", "", "Main hall", "10:30", "11:30", ""))

	sessions, err := repo.ListSessions(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "09:00", sessions[0].StartTime)
	assert.Equal(t, "Ana", sessions[0].SpeakerName)
	assert.Empty(t, sessions[1].SpeakerName)
}

func TestGetSession(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(lit(`FROM "Session" WHERE "sessionID" = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(sessionColumns()))

	_, err := repo.GetSession(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSession(t *testing.T) {
	ctx := context.Background()
	in := models.SessionInput{Title: "Keynote", StartTime: "09:15", EndTime: "10:00", SpeakerName: "Bo"}

	t.Run("updates", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(lit(updateSessionQuery)).
			WithArgs("Keynote", "", "", "09:15", "10:00", "Bo", int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateSession(ctx, 1, in))
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(lit(updateSessionQuery)).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateSession(ctx, 1, in), ErrNotFound)
	})
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(lit(`DELETE FROM "Session" WHERE "sessionID" = $1`)).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteSession(ctx, 3))
	})

	t.Run("already gone", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(lit(`DELETE FROM "Session" WHERE "sessionID" = $1`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteSession(ctx, 3), ErrNotFound)
	})
}

func TestDeleteSessionsForEvent(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(lit(deleteSessionsForEventQuery)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteSessionsForEvent(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
