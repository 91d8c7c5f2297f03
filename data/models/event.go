package models

import (
	"fmt"
	"strings"
	"time"
)

type Event struct {
	ID          int64     `json:"eventID" db:"eventID" readOnly:"true"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	StartDate   time.Time `json:"startDate" db:"startDate"`
	EndDate     time.Time `json:"endDate" db:"endDate"`
	Location    string    `json:"location" db:"location"`
	OrganizerID int64     `json:"organizerID" db:"organizerID"`
}

func (Event) TableName() string {
	return "Event"
}

func (Event) PrimaryKey() string {
	return "eventID"
}

func (e Event) GetID() int64 {
	return e.ID
}

func (e Event) EmptySlice() interface{} {
	return &[]Event{}
}

type EventInput struct {
	Name        string    `json:"name" validate:"notblank,max=255"`
	Description string    `json:"description" validate:"notblank"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	Location    string    `json:"location" validate:"notblank,max=255"`
	OrganizerID int64     `json:"organizerID" validate:"required,gt=0"`
}

// ToModel builds the row to insert. Dates are truncated to the calendar day.
func (in EventInput) ToModel() Event {
	return Event{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		StartDate:   TruncateToDate(in.StartDate),
		EndDate:     TruncateToDate(in.EndDate),
		Location:    strings.TrimSpace(in.Location),
		OrganizerID: in.OrganizerID,
	}
}

type EventUpdate struct {
	Name      string    `json:"name" validate:"notblank,max=255"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
}

// EventFilter selects events relative to the current date.
type EventFilter string

const (
	EventsAll      EventFilter = "all"
	EventsUpcoming EventFilter = "upcoming"
	EventsPast     EventFilter = "past"
)

func ParseEventFilter(s string) (EventFilter, error) {
	switch f := EventFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return EventsAll, nil
	case EventsAll, EventsUpcoming, EventsPast:
		return f, nil
	default:
		return "", fmt.Errorf("unknown event filter %q", s)
	}
}

// TruncateToDate drops the time of day, keeping the date in t's location.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
