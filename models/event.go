package models

import "time"

type EventType string

const (
	EventTaskCreated EventType = "task.created"
	EventTaskUpdated EventType = "task.updated"
	EventTaskDeleted EventType = "task.deleted"
)

// TaskEvent records a committed change to a task.
type TaskEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	TaskID     int64     `json:"taskId"`
	Priority   Priority  `json:"priority,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Retries    int       `json:"retries"`
}
