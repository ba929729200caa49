package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntryStatus is a descriptive label; there are no enforced transitions between values.
type EntryStatus string

const (
	StatusPlanned       EntryStatus = "planned"
	StatusOngoing       EntryStatus = "ongoing"
	StatusCompleted     EntryStatus = "completed"
	StatusCancelled     EntryStatus = "cancelled"
	StatusInstantaneous EntryStatus = "instantaneous"
)

// ParseEntryStatus accepts the empty string (no status) and "done" as an alias of completed.
func ParseEntryStatus(s string) (EntryStatus, error) {
	switch v := EntryStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return "", nil
	case "done":
		return StatusCompleted, nil
	case StatusPlanned, StatusOngoing, StatusCompleted, StatusCancelled, StatusInstantaneous:
		return v, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Entry is a dated diary record owned by one account.
type Entry struct {
	ID            string      `json:"id" bson:"_id"`
	UserID        string      `json:"userId" bson:"user_id"`
	Title         string      `json:"title" bson:"title"`
	Content       string      `json:"content" bson:"content"`
	StartDateTime time.Time   `json:"startDateTime" bson:"start_date_time"`
	EndDateTime   *time.Time  `json:"endDateTime,omitempty" bson:"end_date_time,omitempty"`
	IsAllDay      bool        `json:"isAllDay" bson:"is_all_day"`
	Status        EntryStatus `json:"status,omitempty" bson:"status,omitempty"`
	CreatedAt     time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" bson:"updated_at"`
	Permissions   []string    `json:"permissions" bson:"permissions"`
}

// ValidateSchedule checks the start/end ordering rule shared by create and update.
func ValidateSchedule(start time.Time, end *time.Time, allDay bool) error {
	if start.IsZero() {
		return ErrScheduleMissing
	}
	if !allDay && end != nil && !end.After(start) {
		return ErrEndBeforeStart
	}
	return nil
}

// Permission strings follow the action("user:<id>") shape of the document store.
func ReadPermission(userID string) string   { return fmt.Sprintf("read(\"user:%s\")", userID) }
func UpdatePermission(userID string) string { return fmt.Sprintf("update(\"user:%s\")", userID) }
func DeletePermission(userID string) string { return fmt.Sprintf("delete(\"user:%s\")", userID) }

// OwnerPermissions grants read, update and delete to userID only.
func OwnerPermissions(userID string) []string {
	return []string{ReadPermission(userID), UpdatePermission(userID), DeletePermission(userID)}
}

// IsInstantaneous reports whether the entry renders as a single point in time.
func (e *Entry) IsInstantaneous() bool {
	if e.IsAllDay {
		return false
	}
	return e.Status == StatusInstantaneous || (e.EndDateTime == nil && e.Status == "")
}

const (
	displayDate = "January 2, 2006"
	displayTime = "15:04"
)

// TimeDisplay renders the human-readable schedule line of an entry in loc.
func (e *Entry) TimeDisplay(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	start := e.StartDateTime.In(loc)
	startDate := start.Format(displayDate)
	startTime := start.Format(displayTime)

	if e.IsAllDay {
		return startDate + " (All Day)"
	}
	if e.IsInstantaneous() {
		return startDate + " at " + startTime
	}
	if e.EndDateTime != nil {
		end := e.EndDateTime.In(loc)
		endDate := end.Format(displayDate)
		if endDate == startDate {
			return fmt.Sprintf("%s, %s - %s", startDate, startTime, end.Format(displayTime))
		}
		return fmt.Sprintf("%s, %s - %s, %s", startDate, startTime, endDate, end.Format(displayTime))
	}
	if e.Status == StatusOngoing {
		return fmt.Sprintf("%s, %s (Ongoing)", startDate, startTime)
	}
	return startDate + ", " + startTime
}
