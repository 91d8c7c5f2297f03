package models

import "time"

const StatusRegistered = "Registered"

type Registration struct {
	ID                 int64     `json:"registrationID" db:"registrationID" readOnly:"true"`
	UserID             int64     `json:"userID" db:"userID"`
	EventID            int64     `json:"eventID" db:"eventID"`
	RegistrationDate   time.Time `json:"registrationDate" db:"registrationDate"`
	RegistrationStatus string    `json:"registrationStatus" db:"registrationStatus"`
}

func (Registration) TableName() string {
	return "Registration"
}

func (Registration) PrimaryKey() string {
	return "registrationID"
}

func (r Registration) GetID() int64 {
	return r.ID
}

func (r Registration) EmptySlice() interface{} {
	return &[]Registration{}
}
