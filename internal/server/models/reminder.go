package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a reminder due date.
const DateLayout = time.DateOnly

// TaskType is the kind of care a reminder asks for.
type TaskType string

const (
	TaskWater     TaskType = "water"
	TaskFertilize TaskType = "fertilize"
	TaskRotate    TaskType = "rotate"
	TaskRepot     TaskType = "repot"
)

// ParseTaskType validates s. An empty string defaults to TaskWater.
func ParseTaskType(s string) (TaskType, error) {
	if s == "" {
		return TaskWater, nil
	}
	t := TaskType(s)
	if _, err := t.label(); err != nil {
		return "", err
	}
	return t, nil
}

// Label is the human-readable verb for the task, e.g. "Water".
func (t TaskType) Label() string {
	l, err := t.label()
	if err != nil {
		return "Care for"
	}
	return l
}

func (t TaskType) label() (string, error) {
	switch t {
	case TaskWater:
		return "Water", nil
	case TaskFertilize:
		return "Fertilize", nil
	case TaskRotate:
		return "Rotate", nil
	case TaskRepot:
		return "Repot", nil
	}
	return "", fmt.Errorf("unknown task type %q", string(t))
}

// Reminder is a scheduled care task for one plant.
type Reminder struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"-"`
	PlantID     int64     `json:"plantId"`
	TaskType    TaskType  `json:"taskType"`
	DueDate     Date      `json:"dueDate"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Date is a calendar day, held as 00:00 UTC of that day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's location and re-anchors
// it at midnight UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}
