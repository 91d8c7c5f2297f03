package repository

import (
	"context"
	"database/sql"
	"fmt"

	"eventdesk/data/models"
)

const (
	registrationExistsQuery = `SELECT EXISTS (SELECT 1 FROM "Registration" WHERE "userID" = $1 AND "eventID" = $2)`
	cancelRegistrationQuery = `DELETE FROM "Registration" WHERE "userID" = $1 AND "eventID" = $2`
)

func registrationExists(ctx context.Context, q queryer, userID, eventID int64) (bool, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, registrationExistsQuery, userID, eventID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func deleteRegistrationsForEvent(ctx context.Context, q queryer, eventID int64) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM "Registration" WHERE "eventID" = $1`, eventID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RegisterForEvent registers a user for an event and notifies them. A second
// registration for the same pair fails with ErrAlreadyRegistered; the unique
// constraint on the pair is the authoritative check.
func (sr *SqlRepo) RegisterForEvent(ctx context.Context, userID, eventID int64) (int64, error) {
	const op = "RegisterForEvent"
	if err := requireID(op, "userID", userID); err != nil {
		return 0, err
	}
	if err := requireID(op, "eventID", eventID); err != nil {
		return 0, err
	}

	var registrationID int64
	err := sr.withTx(ctx, op, func(tx *sql.Tx) error {
		exists, err := registrationExists(ctx, tx, userID, eventID)
		if err != nil {
			return sr.fail(op, err)
		}
		if exists {
			return newError(op, ErrAlreadyRegistered, "you are already registered for this event")
		}

		reg := models.Registration{
			UserID:             userID,
			EventID:            eventID,
			RegistrationDate:   sr.now(),
			RegistrationStatus: models.StatusRegistered,
		}
		id, err := sr.insertModel(ctx, tx, &reg)
		if err != nil {
			return sr.fail(op, err)
		}

		if _, err := sr.insertNotification(ctx, tx, models.NotificationInput{
			UserID:  userID,
			Name:    "Registration",
			Title:   "Registration Confirmed",
			Message: fmt.Sprintf("You registered for event ID: %d", eventID),
			Type:    models.NotificationRegistration,
		}); err != nil {
			return sr.fail(op, err)
		}

		registrationID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return registrationID, nil
}

// CancelRegistration removes a user's registration and notifies them. When no
// registration exists nothing is written and ErrNotFound is returned.
func (sr *SqlRepo) CancelRegistration(ctx context.Context, userID, eventID int64) error {
	const op = "CancelRegistration"
	if err := requireID(op, "userID", userID); err != nil {
		return err
	}
	if err := requireID(op, "eventID", eventID); err != nil {
		return err
	}

	return sr.withTx(ctx, op, func(tx *sql.Tx) error {
		if err := sr.execAffecting(ctx, tx, op, "registration", cancelRegistrationQuery, userID, eventID); err != nil {
			return err
		}

		if _, err := sr.insertNotification(ctx, tx, models.NotificationInput{
			UserID:  userID,
			Name:    "Cancellation",
			Title:   "Registration Cancelled",
			Message: fmt.Sprintf("You cancelled your registration for event ID: %d", eventID),
			Type:    models.NotificationCancellation,
		}); err != nil {
			return sr.fail(op, err)
		}
		return nil
	})
}

func (sr *SqlRepo) IsRegistered(ctx context.Context, userID, eventID int64) (bool, error) {
	const op = "IsRegistered"
	if err := requireID(op, "userID", userID); err != nil {
		return false, err
	}
	if err := requireID(op, "eventID", eventID); err != nil {
		return false, err
	}

	exists, err := registrationExists(ctx, sr.DB, userID, eventID)
	if err != nil {
		return false, sr.fail(op, err)
	}
	return exists, nil
}

// ListRegistrationsForEvent returns an event's registrations in the order they
// were made.
func (sr *SqlRepo) ListRegistrationsForEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	const op = "ListRegistrationsForEvent"
	if err := requireID(op, "eventID", eventID); err != nil {
		return nil, err
	}

	res, err := sr.listModels(ctx, sr.DB, &models.Registration{},
		`WHERE "eventID" = $1 ORDER BY "registrationDate", "registrationID"`, 0, eventID)
	if err != nil {
		return nil, sr.fail(op, err)
	}
	return *res.(*[]models.Registration), nil
}
