package models

import "strings"

// Session is a scheduled slot of an Event. Start and end times are HH:mm
// strings; the database stores them as TIME.
type Session struct {
	ID          int64  `json:"sessionID" db:"sessionID" readOnly:"true"`
	EventID     int64  `json:"eventID" db:"eventID"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Location    string `json:"location" db:"location"`
	StartTime   string `json:"startTime" db:"startTime" selectExpr:"to_char(\"startTime\", 'HH24:MI')"`
	EndTime     string `json:"endTime" db:"endTime" selectExpr:"to_char(\"endTime\", 'HH24:MI')"`
	SpeakerName string `json:"speakerName" db:"speakerName" selectExpr:"COALESCE(\"speakerName\", '')"`
}

func (Session) TableName() string {
	return "Session"
}

func (Session) PrimaryKey() string {
	return "sessionID"
}

func (s Session) GetID() int64 {
	return s.ID
}

func (s Session) EmptySlice() interface{} {
	return &[]Session{}
}

type SessionInput struct {
	Title       string `json:"title" validate:"notblank,max=255"`
	Description string `json:"description"`
	Location    string `json:"location" validate:"max=255"`
	StartTime   string `json:"startTime" validate:"required,clock"`
	EndTime     string `json:"endTime" validate:"required,clock"`
	SpeakerName string `json:"speakerName" validate:"max=255"`
}

// ToModel normalizes the input into a row for eventID. The input must have
// passed Validate; an unparsable time is returned as an error regardless.
func (in SessionInput) ToModel(eventID int64) (Session, error) {
	start, err := ParseClock(in.StartTime)
	if err != nil {
		return Session{}, err
	}
	end, err := ParseClock(in.EndTime)
	if err != nil {
		return Session{}, err
	}
	return Session{
		EventID:     eventID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		StartTime:   start,
		EndTime:     end,
		SpeakerName: strings.TrimSpace(in.SpeakerName),
	}, nil
}
