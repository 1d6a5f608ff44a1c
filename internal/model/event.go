package model

import "time"

type EventType string

const (
	EventCreate EventType = "CREATE"
	EventWrite  EventType = "WRITE"
)

type FileEvent struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// IntakeResult is the outcome of submitting one dropped file.
type IntakeResult struct {
	Event FileEvent
	Hash  string
	Err   error
}
