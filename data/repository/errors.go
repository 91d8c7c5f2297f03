package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

// Error kinds returned by every repository operation. Use errors.Is to test
// for them; driver errors are never exposed through Unwrap.
var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicate         = errors.New("already exists")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrNotFound          = errors.New("not found")
	ErrPersistence       = errors.New("database operation failed")
	ErrAuth              = errors.New("invalid credentials")
)

// Constraint names from the init migration.
const (
	constraintUserEmail        = "user_email_key"
	constraintUserUsername     = "user_username_key"
	constraintUserType         = "user_type_check"
	constraintRegistrationPair = "registration_user_event_key"
	constraintEventDates       = "event_dates_check"
)

const (
	persistenceFailureMessage = "something went wrong, try again"
	validationMessagePrefix   = "fix your input: "
)

// Error is the concrete error type of the repository.
type Error struct {
	Op   string
	Kind error
	// Msg is safe to show to end users.
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Cause returns the underlying driver error, if any, for logging.
func (e *Error) Cause() error {
	return e.cause
}

// UserMessage returns a message suitable for end users: the validation detail
// for input problems, a generic retry hint for persistence failures.
func UserMessage(err error) string {
	var re *Error
	if !errors.As(err, &re) {
		return persistenceFailureMessage
	}
	switch {
	case errors.Is(re.Kind, ErrValidation):
		return validationMessagePrefix + re.Msg
	case errors.Is(re.Kind, ErrPersistence):
		return persistenceFailureMessage
	case re.Msg != "":
		return re.Msg
	default:
		return re.Kind.Error()
	}
}

func newError(op string, kind error, msg string) error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

func invalid(op string, err error) error {
	return &Error{Op: op, Kind: ErrValidation, Msg: err.Error()}
}

func notFound(op, what string) error {
	return &Error{Op: op, Kind: ErrNotFound, Msg: what + " not found"}
}

// classify converts a database error into a repository Error.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var re *Error
	if errors.As(err, &re) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Op: op, Kind: ErrNotFound, Msg: "record not found"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			switch pgErr.ConstraintName {
			case constraintRegistrationPair:
				return &Error{Op: op, Kind: ErrAlreadyRegistered, Msg: "you are already registered for this event"}
			case constraintUserEmail:
				return &Error{Op: op, Kind: ErrDuplicate, Msg: "email is already in use"}
			case constraintUserUsername:
				return &Error{Op: op, Kind: ErrDuplicate, Msg: "username is already taken"}
			default:
				return &Error{Op: op, Kind: ErrDuplicate, Msg: "record already exists"}
			}
		case pgerrcode.ForeignKeyViolation:
			return &Error{Op: op, Kind: ErrNotFound, Msg: "referenced record does not exist"}
		case pgerrcode.CheckViolation:
			switch pgErr.ConstraintName {
			case constraintEventDates:
				return &Error{Op: op, Kind: ErrValidation, Msg: "EndDate must not be before StartDate"}
			case constraintUserType:
				return &Error{Op: op, Kind: ErrValidation, Msg: "Role must be organizer or attendee"}
			}
		}
	}

	return &Error{Op: op, Kind: ErrPersistence, Msg: persistenceFailureMessage, cause: err}
}
