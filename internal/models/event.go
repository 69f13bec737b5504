package models

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventActive    EventStatus = "ACTIVE"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:     {EventActive, EventCancelled},
	EventActive:    {EventCompleted, EventCancelled},
	EventCompleted: nil,
	EventCancelled: nil,
}

func (s EventStatus) Valid() bool {
	_, ok := eventTransitions[s]
	return ok
}

// CanTransitionTo is the only place the event lifecycle is encoded.
// Completed and Cancelled are terminal.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Event struct {
	Base
	OrganizerID string      `gorm:"size:36;index;not null" json:"organizerId"`
	Organizer   User        `gorm:"foreignKey:OrganizerID" json:"-"`
	Name        string      `gorm:"size:100;not null" json:"name"`
	Description string      `gorm:"size:500" json:"description,omitempty"`
	StartTime   time.Time   `gorm:"index;not null" json:"startTime"`
	EndTime     time.Time   `gorm:"not null" json:"endTime"`
	CourtCount  int         `gorm:"not null" json:"courtCount"`
	Status      EventStatus `gorm:"size:16;index;not null" json:"status"`
}
