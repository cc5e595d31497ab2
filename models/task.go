package models

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is the persisted entity.
type Task struct {
	ID            int64
	Description   string
	IsReminderSet bool
	IsTaskOpen    bool
	CreatedOn     time.Time
	Priority      Priority
}

const localDateTimeLayout = "2006-01-02T15:04:05.999999999"

// LocalDateTime encodes as an ISO-8601 date-time without a zone offset.
type LocalDateTime struct {
	time.Time
}

func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t}
}

func (d LocalDateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(localDateTimeLayout) + `"`), nil
}

func (d *LocalDateTime) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date-time %s", s)
	}
	s = strings.TrimSpace(s[1 : len(s)-1])

	if t, err := time.ParseInLocation(localDateTimeLayout, s, time.Local); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid date-time %q", s)
	}
	// Offsets are folded into local wall-clock time.
	d.Time = t.In(time.Local)
	return nil
}
