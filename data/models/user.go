package models

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleOrganizer = "Organizer"
	RoleAttendee  = "Attendee"
)

// PasswordCost is the bcrypt cost used for new password hashes.
var PasswordCost = bcrypt.DefaultCost

type User struct {
	ID       int64  `json:"userID" db:"userID" readOnly:"true"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
	UserType string `json:"userType" db:"userType"`
}

func (User) TableName() string {
	return "User"
}

func (User) PrimaryKey() string {
	return "userID"
}

func (u User) GetID() int64 {
	return u.ID
}

func (u User) EmptySlice() interface{} {
	return &[]User{}
}

// UserInput is the data needed to register a new account.
type UserInput struct {
	Name     string `json:"name" validate:"notblank,max=255"`
	Email    string `json:"email" validate:"notblank,strictemail,max=255"`
	Username string `json:"username" validate:"notblank,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,role"`
}

type ProfileUpdate struct {
	Name     string `json:"name" validate:"notblank,max=255"`
	Email    string `json:"email" validate:"notblank,strictemail,max=255"`
	Username string `json:"username" validate:"notblank,max=100"`
}

// PasswordRules is the validation tag applied to new passwords.
const PasswordRules = "required,min=6,max=72"

// AuthResult identifies an authenticated user.
type AuthResult struct {
	UserID   int64  `json:"userID"`
	UserType string `json:"userType"`
}

// NormalizeRole maps a case-insensitive role name onto its stored form. It
// returns "" for anything other than organizer or attendee.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "organizer":
		return RoleOrganizer
	case "attendee":
		return RoleAttendee
	default:
		return ""
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
func CheckPasswordHash(password, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
