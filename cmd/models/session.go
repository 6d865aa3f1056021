package models

import (
	"time"
)

const (
	SessionStatusUpcoming  = "upcoming"
	SessionStatusCompleted = "completed"
)

const (
	SessionModeOnline  = "online"
	SessionModeOffline = "offline"
)

// SessionRecord is a single booked session between a patient and a
// practitioner. Practitioner fields are copied at booking time and never
// re-synced; the record reflects the practitioner as they were when booked.
type SessionRecord struct {
	ID                  string    `gorm:"primaryKey;size:64" json:"id"`
	PatientID           uint      `gorm:"column:patient_id;not null;index" json:"patient_id"`
	PatientDisplayName  string    `gorm:"column:patient_display_name;size:255;not null" json:"patient_display_name"`
	PractitionerName    string    `gorm:"column:practitioner_name;size:255;not null" json:"practitioner_name"`
	PractitionerContact string    `gorm:"column:practitioner_contact;size:20" json:"practitioner_contact"`
	PractitionerPhoto   string    `gorm:"column:practitioner_photo;size:255" json:"practitioner_photo"`
	SessionType         string    `gorm:"column:session_type;size:100;not null" json:"session_type"`
	ScheduledDate       time.Time `gorm:"column:scheduled_date;type:date;not null" json:"scheduled_date"`
	Slot                string    `gorm:"column:slot;size:20;not null" json:"slot"`
	Mode                string    `gorm:"column:mode;size:10;not null" json:"mode"`
	OnlineMeetingRef    string    `gorm:"column:online_meeting_ref;size:255" json:"online_meeting_ref,omitempty"`
	Notes               string    `gorm:"column:notes;type:text" json:"notes"`
	Status              string    `gorm:"column:status;size:20;not null;default:upcoming" json:"status"`
	BookingKey          string    `gorm:"column:booking_key;size:128;uniqueIndex" json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}

func (SessionRecord) TableName() string {
	return "sessions"
}
