package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"eventdesk/data/models"
)

const unknownEventName = "Unknown Event"

var eventRefPattern = regexp.MustCompile(`(?i)event\s*id\s*:?\s*(\d+)`)

// renderEventRefs replaces every "event id: N" reference in msg with the
// event's name, looked up through q.
func renderEventRefs(ctx context.Context, q queryer, msg string) (string, error) {
	matches := eventRefPattern.FindAllStringSubmatchIndex(msg, -1)
	if len(matches) == 0 {
		return msg, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		name, err := eventName(ctx, q, msg[m[2]:m[3]])
		if err != nil {
			return "", err
		}
		b.WriteString(msg[last:m[0]])
		b.WriteString("Event: ")
		b.WriteString(name)
		last = m[1]
	}
	b.WriteString(msg[last:])
	return b.String(), nil
}

func eventName(ctx context.Context, q queryer, ref string) (string, error) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return unknownEventName, nil
	}

	var name string
	err = q.QueryRowContext(ctx, `SELECT "name" FROM "Event" WHERE "eventID" = $1`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return unknownEventName, nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// insertNotification writes an unread notification with the event references
// of its message already resolved. Driver errors are returned unclassified.
func (sr *SqlRepo) insertNotification(ctx context.Context, q queryer, in models.NotificationInput) (int64, error) {
	msg, err := renderEventRefs(ctx, q, in.Message)
	if err != nil {
		return 0, err
	}

	n := models.Notification{
		UserID:           in.UserID,
		Name:             strings.TrimSpace(in.Name),
		Title:            strings.TrimSpace(in.Title),
		Message:          msg,
		CreatedAt:        sr.now(),
		IsRead:           false,
		NotificationType: strings.TrimSpace(in.Type),
	}
	return sr.insertModel(ctx, q, &n)
}

func (sr *SqlRepo) InsertNotification(ctx context.Context, in models.NotificationInput) (int64, error) {
	const op = "InsertNotification"
	if err := models.Validate(in); err != nil {
		return 0, invalid(op, err)
	}

	id, err := sr.insertNotification(ctx, sr.DB, in)
	if err != nil {
		return 0, sr.fail(op, err)
	}
	return id, nil
}

func (sr *SqlRepo) GetNotification(ctx context.Context, notificationID int64) (models.Notification, error) {
	const op = "GetNotification"
	if err := requireID(op, "notificationID", notificationID); err != nil {
		return models.Notification{}, err
	}

	var n models.Notification
	if err := sr.getModelByID(ctx, sr.DB, &n, notificationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Notification{}, notFound(op, "notification")
		}
		return models.Notification{}, sr.fail(op, err)
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func (sr *SqlRepo) ListNotifications(ctx context.Context, userID int64, filter models.ReadFilter, typeFilter string) ([]models.Notification, error) {
	const op = "ListNotifications"
	if err := requireID(op, "userID", userID); err != nil {
		return nil, err
	}

	conds := []string{`"userID" = $1`}
	args := []interface{}{userID}

	switch filter {
	case models.ReadAll, "":
	case models.ReadUnread:
		conds = append(conds, `"isRead" = FALSE`)
	case models.ReadSeen:
		conds = append(conds, `"isRead" = TRUE`)
	default:
		return nil, newError(op, ErrValidation, fmt.Sprintf("unknown read filter %q", filter))
	}

	if t := strings.TrimSpace(typeFilter); t != "" {
		args = append(args, t)
		conds = append(conds, fmt.Sprintf(`LOWER("notificationType") = LOWER($%d)`, len(args)))
	}

	clauses := fmt.Sprintf(`WHERE %s ORDER BY "createdAt" DESC, "notificationID" DESC`, strings.Join(conds, " AND "))
	res, err := sr.listModels(ctx, sr.DB, &models.Notification{}, clauses, 0, args...)
	if err != nil {
		return nil, sr.fail(op, err)
	}
	return *res.(*[]models.Notification), nil
}

// SetReadStatus toggles a notification between read and unread.
func (sr *SqlRepo) SetReadStatus(ctx context.Context, notificationID int64, isRead bool) error {
	const op = "SetReadStatus"
	if err := requireID(op, "notificationID", notificationID); err != nil {
		return err
	}
	return sr.execAffecting(ctx, sr.DB, op, "notification",
		`UPDATE "Notification" SET "isRead" = $1 WHERE "notificationID" = $2`, isRead, notificationID)
}

func (sr *SqlRepo) DeleteNotification(ctx context.Context, notificationID int64) error {
	const op = "DeleteNotification"
	if err := requireID(op, "notificationID", notificationID); err != nil {
		return err
	}

	n, err := sr.deleteByID(ctx, sr.DB, &models.Notification{}, notificationID)
	if err != nil {
		return sr.fail(op, err)
	}
	if n == 0 {
		return notFound(op, "notification")
	}
	return nil
}

// ClearAllRead deletes the user's read notifications, optionally only those of
// one type, and returns how many were removed.
func (sr *SqlRepo) ClearAllRead(ctx context.Context, userID int64, typeFilter string) (int64, error) {
	const op = "ClearAllRead"
	if err := requireID(op, "userID", userID); err != nil {
		return 0, err
	}

	query := `DELETE FROM "Notification" WHERE "userID" = $1 AND "isRead" = TRUE`
	args := []interface{}{userID}
	if t := strings.TrimSpace(typeFilter); t != "" {
		query += ` AND LOWER("notificationType") = LOWER($2)`
		args = append(args, t)
	}

	res, err := sr.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, sr.fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, sr.fail(op, err)
	}
	return n, nil
}

func (sr *SqlRepo) CountUnread(ctx context.Context, userID int64) (int64, error) {
	const op = "CountUnread"
	if err := requireID(op, "userID", userID); err != nil {
		return 0, err
	}

	var n int64
	err := sr.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM "Notification" WHERE "userID" = $1 AND "isRead" = FALSE`, userID).Scan(&n)
	if err != nil {
		return 0, sr.fail(op, err)
	}
	return n, nil
}
