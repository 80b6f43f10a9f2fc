package models

import "time"

// Message is an internal note between dealership staff members.
type Message struct {
	ID          string     `db:"id" json:"id"`
	SenderID    string     `db:"sender_id" json:"sender_id"`
	RecipientID string     `db:"recipient_id" json:"recipient_id"`
	Subject     string     `db:"subject" json:"subject"`
	Body        string     `db:"body" json:"body"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// MessageDetail joins sender and recipient display fields.
type MessageDetail struct {
	Message
	SenderName    *string `db:"sender_name" json:"sender_name,omitempty"`
	RecipientName *string `db:"recipient_name" json:"recipient_name,omitempty"`
}

// MessageFilter narrows message listings for the current user.
type MessageFilter struct {
	UserID         string
	CounterpartyID string
	UnreadOnly     bool
	Page           int
	PageSize       int
}
