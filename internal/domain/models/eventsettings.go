// internal/domain/models/eventsettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailKind names one of the outbound notification queues on the
// settings document. Queue membership is by recipient email address.
type EmailKind string

const (
	EmailAcceptance   EmailKind = "acceptance"
	EmailRejection    EmailKind = "rejection"
	EmailWaitlist     EmailKind = "waitlist"
	EmailVerification EmailKind = "verification"
	EmailReminder     EmailKind = "reminder"
	EmailLagger       EmailKind = "lagger"
)

// EmailKinds lists every queue kind, in flush order.
var EmailKinds = []EmailKind{
	EmailAcceptance,
	EmailRejection,
	EmailWaitlist,
	EmailVerification,
	EmailReminder,
	EmailLagger,
}

// EmailQueue is one pending-send queue plus its last flush time.
type EmailQueue struct {
	Recipients  []string   `bson:"recipients" json:"recipients"`
	LastFlushed *time.Time `bson:"last_flushed,omitempty" json:"last_flushed,omitempty"`
}

// EventSettings is the singleton configuration document for the event.
// There is exactly one per database; the store creates it with defaults
// on first read.
type EventSettings struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// MaxParticipants caps confirmed-capacity admissions. Quorum admits
	// beyond the cap become waitlists instead.
	MaxParticipants int `bson:"max_participants" json:"max_participants"`

	TimeOpen    time.Time `bson:"time_open" json:"time_open"`
	TimeClose   time.Time `bson:"time_close" json:"time_close"`
	TimeConfirm time.Time `bson:"time_confirm" json:"time_confirm"`

	PendingSchools []string `bson:"pending_schools,omitempty" json:"pending_schools,omitempty"`
	Schools        []string `bson:"schools,omitempty" json:"schools,omitempty"`

	EmailQueues map[EmailKind]EmailQueue `bson:"email_queues" json:"email_queues"`

	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// DefaultMaxParticipants seeds MaxParticipants when the settings
// document is first created.
const DefaultMaxParticipants = 300
