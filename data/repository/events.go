package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventdesk/data/models"
)

const eventCreatedTitle = "Event Created"

// CreateEvent stores an event together with its sessions and notifies the
// organizer. Either all rows are written or none are.
func (sr *SqlRepo) CreateEvent(ctx context.Context, in models.EventInput, sessions []models.SessionInput) (int64, error) {
	const op = "CreateEvent"
	if err := models.Validate(in); err != nil {
		return 0, invalid(op, err)
	}
	rows, err := sessionRows(op, 0, sessions)
	if err != nil {
		return 0, err
	}

	event := in.ToModel()
	var eventID int64
	err = sr.withTx(ctx, op, func(tx *sql.Tx) error {
		id, err := sr.insertModel(ctx, tx, &event)
		if err != nil {
			return sr.fail(op, err)
		}

		for _, s := range rows {
			s.EventID = id
			if _, err := insertSession(ctx, tx, s); err != nil {
				return sr.fail(op, err)
			}
		}

		if _, err := sr.insertNotification(ctx, tx, models.NotificationInput{
			UserID:  event.OrganizerID,
			Name:    event.Name,
			Title:   eventCreatedTitle,
			Message: fmt.Sprintf("You created event ID: %d", id),
			Type:    models.NotificationOrganizer,
		}); err != nil {
			return sr.fail(op, err)
		}

		eventID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	sr.logger().Info().Int64("eventID", eventID).Int("sessions", len(rows)).Msg("event created")
	return eventID, nil
}

func (sr *SqlRepo) GetEvent(ctx context.Context, eventID int64) (models.Event, error) {
	const op = "GetEvent"
	if err := requireID(op, "eventID", eventID); err != nil {
		return models.Event{}, err
	}

	var e models.Event
	if err := sr.getModelByID(ctx, sr.DB, &e, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Event{}, notFound(op, "event")
		}
		return models.Event{}, sr.fail(op, err)
	}
	return e, nil
}

func (sr *SqlRepo) ListEventsByOrganizer(ctx context.Context, organizerID int64) ([]models.Event, error) {
	const op = "ListEventsByOrganizer"
	if err := requireID(op, "organizerID", organizerID); err != nil {
		return nil, err
	}

	res, err := sr.listModels(ctx, sr.DB, &models.Event{},
		`WHERE "organizerID" = $1 ORDER BY "startDate", "eventID"`, 0, organizerID)
	if err != nil {
		return nil, sr.fail(op, err)
	}
	return *res.(*[]models.Event), nil
}

// ListAllEvents lists events relative to today, narrowed further by the
// filtering, sorting and pagination parameters of buildQueryClauses.
func (sr *SqlRepo) ListAllEvents(ctx context.Context, filter models.EventFilter, queryParams map[string]string) ([]models.Event, error) {
	const op = "ListAllEvents"

	var baseConds []string
	var baseVals []interface{}
	today := models.TruncateToDate(sr.now())

	switch filter {
	case models.EventsAll, "":
	case models.EventsUpcoming:
		baseConds = append(baseConds, `"startDate" >= $1`)
		baseVals = append(baseVals, today)
	case models.EventsPast:
		baseConds = append(baseConds, `"startDate" < $1`)
		baseVals = append(baseVals, today)
	default:
		return nil, newError(op, ErrValidation, fmt.Sprintf("unknown event filter %q", filter))
	}

	clauses, vals, err := eventListClauses(queryParams, baseConds, baseVals)
	if err != nil {
		return nil, newError(op, ErrValidation, err.Error())
	}

	// The limit is the second to last value
	expectedRows, _ := vals[len(vals)-2].(int)

	res, err := sr.listModels(ctx, sr.DB, &models.Event{}, clauses, expectedRows, vals...)
	if err != nil {
		return nil, sr.fail(op, err)
	}
	return *res.(*[]models.Event), nil
}

func eventListClauses(queryParams map[string]string, baseConds []string, baseVals []interface{}) (string, []interface{}, error) {
	if queryParams == nil {
		queryParams = map[string]string{}
	}
	return buildQueryClauses(queryParams, &models.Event{}, "startDate", baseConds, baseVals)
}

// ListRegisteredEvents returns the events a user holds a registration for.
func (sr *SqlRepo) ListRegisteredEvents(ctx context.Context, userID int64) ([]models.Event, error) {
	const op = "ListRegisteredEvents"
	if err := requireID(op, "userID", userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM "Event" e
		JOIN "Registration" r ON r."eventID" = e."eventID"
		WHERE r."userID" = $1
		ORDER BY e."startDate", e."eventID"`, selectList(&models.Event{}, "e"))

	rows, err := sr.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, sr.fail(op, err)
	}
	defer rows.Close()

	res, err := models.ScanRowsToSliceOfModels(&models.Event{}, rows, 0)
	if err != nil {
		return nil, sr.fail(op, err)
	}
	return *res.(*[]models.Event), nil
}

// UpdateEvent changes an event's name and dates.
func (sr *SqlRepo) UpdateEvent(ctx context.Context, eventID int64, upd models.EventUpdate) error {
	const op = "UpdateEvent"
	if err := requireID(op, "eventID", eventID); err != nil {
		return err
	}
	if err := models.Validate(upd); err != nil {
		return invalid(op, err)
	}

	return sr.execAffecting(ctx, sr.DB, op, "event",
		`UPDATE "Event" SET "name" = $1, "startDate" = $2, "endDate" = $3 WHERE "eventID" = $4`,
		strings.TrimSpace(upd.Name),
		models.TruncateToDate(upd.StartDate),
		models.TruncateToDate(upd.EndDate),
		eventID)
}

// DeleteEvent removes an event with its registrations and sessions in one
// transaction.
func (sr *SqlRepo) DeleteEvent(ctx context.Context, eventID int64) error {
	const op = "DeleteEvent"
	if err := requireID(op, "eventID", eventID); err != nil {
		return err
	}

	return sr.withTx(ctx, op, func(tx *sql.Tx) error {
		if err := deleteEventCascade(ctx, tx, eventID); err != nil {
			return sr.fail(op, err)
		}

		n, err := sr.deleteByID(ctx, tx, &models.Event{}, eventID)
		if err != nil {
			return sr.fail(op, err)
		}
		if n == 0 {
			return notFound(op, "event")
		}
		return nil
	})
}

// deleteEventCascade removes the rows that reference an event, in foreign key
// order.
func deleteEventCascade(ctx context.Context, q queryer, eventID int64) error {
	if _, err := deleteRegistrationsForEvent(ctx, q, eventID); err != nil {
		return err
	}
	if _, err := deleteSessionsForEvent(ctx, q, eventID); err != nil {
		return err
	}
	return nil
}
