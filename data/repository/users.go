package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"eventdesk/data/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	userTakenQuery = `SELECT COALESCE(BOOL_OR("username" = $1), FALSE), COALESCE(BOOL_OR("email" = $2), FALSE)
		FROM "User" WHERE "username" = $1 OR "email" = $2`
	credentialsQuery = `SELECT "userID", "password", "userType" FROM "User" WHERE "username" = $1`
)

// deleteUserCascade holds the statements that remove everything a user owns,
// in foreign key order. Each takes the user id as its only argument.
var deleteUserCascade = []string{
	`DELETE FROM "Registration" WHERE "userID" = $1`,
	`DELETE FROM "Registration" WHERE "eventID" IN (SELECT "eventID" FROM "Event" WHERE "organizerID" = $1)`,
	`DELETE FROM "Session" WHERE "eventID" IN (SELECT "eventID" FROM "Event" WHERE "organizerID" = $1)`,
	`DELETE FROM "Event" WHERE "organizerID" = $1`,
	`DELETE FROM "Notification" WHERE "userID" = $1`,
}

const invalidCredentialsMessage = "invalid username or password"

var checkPassword = models.CheckPasswordHash

var (
	unknownUserHashOnce sync.Once
	unknownUserHashVal  string
)

// unknownUserHash is a hash at the current PasswordCost that no password
// matches in practice.
func unknownUserHash() string {
	unknownUserHashOnce.Do(func() {
		h, err := models.HashPassword(uuid.NewString())
		if err == nil {
			unknownUserHashVal = h
		}
	})
	return unknownUserHashVal
}

// Authenticate checks a username and password against the stored hash.
func (sr *SqlRepo) Authenticate(ctx context.Context, username, password string) (models.AuthResult, error) {
	const op = "Authenticate"
	username = strings.TrimSpace(username)
	if username == "" {
		return models.AuthResult{}, newError(op, ErrValidation, "Username is required")
	}
	if password == "" {
		return models.AuthResult{}, newError(op, ErrValidation, "Password is required")
	}

	var (
		res  models.AuthResult
		hash string
	)
	err := sr.DB.QueryRowContext(ctx, credentialsQuery, username).Scan(&res.UserID, &hash, &res.UserType)
	if errors.Is(err, sql.ErrNoRows) {
		// Unknown users cost a bcrypt comparison too.
		checkPassword(password, unknownUserHash())
		return models.AuthResult{}, newError(op, ErrAuth, invalidCredentialsMessage)
	}
	if err != nil {
		return models.AuthResult{}, sr.fail(op, err)
	}

	if !checkPassword(password, hash) {
		return models.AuthResult{}, newError(op, ErrAuth, invalidCredentialsMessage)
	}
	return res, nil
}

// RegisterUser creates an account with a hashed password and a normalized
// role.
func (sr *SqlRepo) RegisterUser(ctx context.Context, in models.UserInput) (int64, error) {
	const op = "RegisterUser"
	if err := models.Validate(in); err != nil {
		return 0, invalid(op, err)
	}

	u := models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Username: strings.TrimSpace(in.Username),
		UserType: models.NormalizeRole(in.Role),
	}

	var usernameTaken, emailTaken bool
	if err := sr.DB.QueryRowContext(ctx, userTakenQuery, u.Username, u.Email).Scan(&usernameTaken, &emailTaken); err != nil {
		return 0, sr.fail(op, err)
	}
	switch {
	case usernameTaken:
		return 0, newError(op, ErrDuplicate, "username is already taken")
	case emailTaken:
		return 0, newError(op, ErrDuplicate, "email is already in use")
	}

	hash, err := sr.hashPassword(op, in.Password)
	if err != nil {
		return 0, err
	}
	u.Password = hash

	id, err := sr.insertModel(ctx, sr.DB, &u)
	if err != nil {
		return 0, sr.fail(op, err)
	}

	sr.logger().Info().Int64("userID", id).Str("userType", u.UserType).Msg("user registered")
	return id, nil
}

func (sr *SqlRepo) hashPassword(op, password string) (string, error) {
	hash, err := models.HashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", newError(op, ErrValidation, "Password must be at most 72 bytes")
	}
	if err != nil {
		return "", sr.fail(op, err)
	}
	return hash, nil
}

func (sr *SqlRepo) GetUser(ctx context.Context, userID int64) (models.User, error) {
	const op = "GetUser"
	if err := requireID(op, "userID", userID); err != nil {
		return models.User{}, err
	}

	var u models.User
	if err := sr.getModelByID(ctx, sr.DB, &u, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, notFound(op, "user")
		}
		return models.User{}, sr.fail(op, err)
	}
	return u, nil
}

// UpdateProfile replaces a user's name, e-mail and username.
func (sr *SqlRepo) UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) error {
	const op = "UpdateProfile"
	if err := requireID(op, "userID", userID); err != nil {
		return err
	}
	if err := models.Validate(upd); err != nil {
		return invalid(op, err)
	}

	return sr.execAffecting(ctx, sr.DB, op, "user",
		`UPDATE "User" SET "name" = $1, "email" = $2, "username" = $3 WHERE "userID" = $4`,
		strings.TrimSpace(upd.Name), strings.TrimSpace(upd.Email), strings.TrimSpace(upd.Username), userID)
}

// ChangePassword stores a new hash for the user's password. Matching the
// confirmation is the caller's job.
func (sr *SqlRepo) ChangePassword(ctx context.Context, userID int64, newPassword string) error {
	const op = "ChangePassword"
	if err := requireID(op, "userID", userID); err != nil {
		return err
	}
	if err := models.ValidateVar("Password", newPassword, models.PasswordRules); err != nil {
		return invalid(op, err)
	}

	hash, err := sr.hashPassword(op, newPassword)
	if err != nil {
		return err
	}
	return sr.execAffecting(ctx, sr.DB, op, "user",
		`UPDATE "User" SET "password" = $1 WHERE "userID" = $2`, hash, userID)
}

// DeleteUser removes a user along with their registrations, notifications and
// the events they organize, in one transaction.
func (sr *SqlRepo) DeleteUser(ctx context.Context, userID int64) error {
	const op = "DeleteUser"
	if err := requireID(op, "userID", userID); err != nil {
		return err
	}

	err := sr.withTx(ctx, op, func(tx *sql.Tx) error {
		for _, stmt := range deleteUserCascade {
			if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
				return sr.fail(op, err)
			}
		}

		n, err := sr.deleteByID(ctx, tx, &models.User{}, userID)
		if err != nil {
			return sr.fail(op, err)
		}
		if n == 0 {
			return notFound(op, "user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	sr.logger().Info().Int64("userID", userID).Msg("user deleted")
	return nil
}
