package notification

import (
	"time"
)

// EmailType tags an outbound email for the audit log
type EmailType string

const (
	TypeAutoCheckout EmailType = "auto_checkout"
)

type EmailStatus string

const (
	EmailSent   EmailStatus = "sent"
	EmailFailed EmailStatus = "failed"
)

// Message is a rendered email ready for delivery.
type Message struct {
	Recipient   string
	Subject     string
	Body        string
	Type        EmailType
	ReferenceID string
}

// EmailLog records every delivery attempt
type EmailLog struct {
	ID           string
	Recipient    string
	Subject      string
	Body         string
	Type         EmailType
	ReferenceID  *string
	SentAt       time.Time
	Status       EmailStatus
	ErrorMessage *string
}
