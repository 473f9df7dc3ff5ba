package gamification

import "fmt"

// EventType identifies a gamification event.
type EventType string

const EventLevelUp EventType = "LEVEL_UP"

// Event is a side effect produced by AddXP for the caller to deliver.
type Event struct {
	Type    EventType `json:"type"`
	Level   int       `json:"level"`
	Title   string    `json:"title"`
	Heading string    `json:"heading"`
	Message string    `json:"message"`
}

func newLevelUp(level int, title string) Event {
	return Event{
		Type:    EventLevelUp,
		Level:   level,
		Title:   title,
		Heading: "LEVEL UP!",
		Message: fmt.Sprintf("You reached Level %d! You are now a %s!", level, title),
	}
}
