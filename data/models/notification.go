package models

import (
	"fmt"
	"strings"
	"time"
)

// Notification types written by the data operations.
const (
	NotificationOrganizer    = "Organizer"
	NotificationEvent        = "event"
	NotificationRegistration = "registration"
	NotificationCancellation = "cancellation"
)

type Notification struct {
	ID               int64     `json:"notificationID" db:"notificationID" readOnly:"true"`
	UserID           int64     `json:"userID" db:"userID"`
	Name             string    `json:"name" db:"name"`
	Title            string    `json:"title" db:"title"`
	Message          string    `json:"message" db:"message"`
	CreatedAt        time.Time `json:"createdAt" db:"createdAt"`
	IsRead           bool      `json:"isRead" db:"isRead"`
	NotificationType string    `json:"notificationType" db:"notificationType"`
}

func (Notification) TableName() string {
	return "Notification"
}

func (Notification) PrimaryKey() string {
	return "notificationID"
}

func (n Notification) GetID() int64 {
	return n.ID
}

func (n Notification) EmptySlice() interface{} {
	return &[]Notification{}
}

type NotificationInput struct {
	UserID  int64  `json:"userID" validate:"required,gt=0"`
	Name    string `json:"name" validate:"max=255"`
	Title   string `json:"title" validate:"notblank,max=255"`
	Message string `json:"message" validate:"notblank"`
	Type    string `json:"notificationType" validate:"max=50"`
}

// ReadFilter narrows a notification listing by read state.
type ReadFilter string

const (
	ReadAll    ReadFilter = "all"
	ReadUnread ReadFilter = "unread"
	ReadSeen   ReadFilter = "read"
)

func ParseReadFilter(s string) (ReadFilter, error) {
	switch f := ReadFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ReadAll, nil
	case ReadAll, ReadUnread, ReadSeen:
		return f, nil
	default:
		return "", fmt.Errorf("unknown read filter %q", s)
	}
}
