package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventdesk/data/models"
)

const (
	insertSessionQuery = `INSERT INTO "Session" ("eventID", "title", "description", "location", "startTime", "endTime", "speakerName")
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "sessionID"`
	updateSessionQuery = `UPDATE "Session" SET "title" = $1, "description" = $2, "location" = $3,
		"startTime" = $4, "endTime" = $5, "speakerName" = $6 WHERE "sessionID" = $7`
	deleteSessionsForEventQuery = `DELETE FROM "Session" WHERE "eventID" = $1`
)

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// insertSession writes one session row. Driver errors are returned
// unclassified so callers inside a transaction can decide how to report them.
func insertSession(ctx context.Context, q queryer, s models.Session) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, insertSessionQuery,
		s.EventID, s.Title, s.Description, s.Location, s.StartTime, s.EndTime, nullIfEmpty(s.SpeakerName)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func deleteSessionsForEvent(ctx context.Context, q queryer, eventID int64) (int64, error) {
	res, err := q.ExecContext(ctx, deleteSessionsForEventQuery, eventID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// sessionRows validates every input and converts it into a row of eventID.
// Nothing touches the database until all inputs pass.
func sessionRows(op string, eventID int64, inputs []models.SessionInput) ([]models.Session, error) {
	rows := make([]models.Session, 0, len(inputs))
	for i, in := range inputs {
		if err := models.Validate(in); err != nil {
			return nil, &Error{Op: op, Kind: ErrValidation, Msg: sessionLabel(i) + err.Error()}
		}
		row, err := in.ToModel(eventID)
		if err != nil {
			return nil, &Error{Op: op, Kind: ErrValidation, Msg: sessionLabel(i) + err.Error()}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func sessionLabel(i int) string {
	return fmt.Sprintf("session %d: ", i+1)
}

// AddSession adds a single session to an existing event.
func (sr *SqlRepo) AddSession(ctx context.Context, eventID int64, in models.SessionInput) (int64, error) {
	const op = "AddSession"
	if err := requireID(op, "eventID", eventID); err != nil {
		return 0, err
	}
	if err := models.Validate(in); err != nil {
		return 0, invalid(op, err)
	}
	s, err := in.ToModel(eventID)
	if err != nil {
		return 0, invalid(op, err)
	}

	id, err := insertSession(ctx, sr.DB, s)
	if err != nil {
		return 0, sr.fail(op, err)
	}
	return id, nil
}

func (sr *SqlRepo) GetSession(ctx context.Context, sessionID int64) (models.Session, error) {
	const op = "GetSession"
	if err := requireID(op, "sessionID", sessionID); err != nil {
		return models.Session{}, err
	}

	var s models.Session
	if err := sr.getModelByID(ctx, sr.DB, &s, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, notFound(op, "session")
		}
		return models.Session{}, sr.fail(op, err)
	}
	return s, nil
}

// ListSessions returns the sessions of an event ordered by start time.
func (sr *SqlRepo) ListSessions(ctx context.Context, eventID int64) ([]models.Session, error) {
	const op = "ListSessions"
	if err := requireID(op, "eventID", eventID); err != nil {
		return nil, err
	}

	res, err := sr.listModels(ctx, sr.DB, &models.Session{},
		`WHERE "eventID" = $1 ORDER BY "startTime", "sessionID"`, 0, eventID)
	if err != nil {
		return nil, sr.fail(op, err)
	}
	return *res.(*[]models.Session), nil
}

func (sr *SqlRepo) UpdateSession(ctx context.Context, sessionID int64, in models.SessionInput) error {
	const op = "UpdateSession"
	if err := requireID(op, "sessionID", sessionID); err != nil {
		return err
	}
	if err := models.Validate(in); err != nil {
		return invalid(op, err)
	}
	s, err := in.ToModel(0)
	if err != nil {
		return invalid(op, err)
	}

	return sr.execAffecting(ctx, sr.DB, op, "session", updateSessionQuery,
		s.Title, s.Description, s.Location, s.StartTime, s.EndTime, nullIfEmpty(s.SpeakerName), sessionID)
}

func (sr *SqlRepo) DeleteSession(ctx context.Context, sessionID int64) error {
	const op = "DeleteSession"
	if err := requireID(op, "sessionID", sessionID); err != nil {
		return err
	}

	n, err := sr.deleteByID(ctx, sr.DB, &models.Session{}, sessionID)
	if err != nil {
		return sr.fail(op, err)
	}
	if n == 0 {
		return notFound(op, "session")
	}
	return nil
}

// DeleteSessionsForEvent removes every session of an event and reports how
// many were deleted. An event without sessions is not an error.
func (sr *SqlRepo) DeleteSessionsForEvent(ctx context.Context, eventID int64) (int64, error) {
	const op = "DeleteSessionsForEvent"
	if err := requireID(op, "eventID", eventID); err != nil {
		return 0, err
	}

	n, err := deleteSessionsForEvent(ctx, sr.DB, eventID)
	if err != nil {
		return 0, sr.fail(op, err)
	}
	return n, nil
}
