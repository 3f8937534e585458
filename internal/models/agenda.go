package models

import "time"

// Event is an upcoming calendar event fetched from the calendar collaborator.
type Event struct {
	Name     string    `json:"name"`
	Location string    `json:"location,omitempty"`
	Time     time.Time `json:"time"`
}

// Task is an upcoming task fetched from the task collaborator. Tasks without
// a due time are ignored by the reminder scanner.
type Task struct {
	Title string     `json:"title"`
	Due   *time.Time `json:"due,omitempty"`
}
