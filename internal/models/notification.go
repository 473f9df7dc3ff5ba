package models

import "time"

// NotificationType classifies a user notification.
type NotificationType string

const NotificationLevelUp NotificationType = "LEVEL_UP"

// Notification is a message shown in a user's alert centre.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"userId"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	ReadAt    *time.Time       `db:"read_at" json:"readAt,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}
