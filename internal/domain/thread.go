package domain

import (
	"strings"
	"time"
)

// Thread is a message conversation summary from the sending platform.
// Emails are only present after a detail fetch.
type Thread struct {
	ID               string `json:"id"`
	ParticipantEmail string `json:"participant_email"`
	MailboxID        string `json:"mailbox_id"`
	SequenceID       string `json:"sequence_id"`
}

// ThreadDetail is a thread with its full message bodies fetched.
type ThreadDetail struct {
	Thread
	Emails []Email `json:"emails"`
}

// EmailKind classifies a message within a thread by its ID prefix.
type EmailKind string

const (
	EmailScheduled EmailKind = "scheduled" // automated sequence send
	EmailManual    EmailKind = "manual"    // composed by a human operator
	EmailInbound   EmailKind = "inbound"   // reply from the contact
	EmailUnknown   EmailKind = "unknown"
)

// Message ID prefixes assigned by the sending platform.
const (
	prefixScheduled = "scheduled-"
	prefixManual    = "manual-"
	prefixInbound   = "inbound-"
)

// Email is a single message within a thread.
type Email struct {
	ID         string     `json:"id"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	SentAt     *time.Time `json:"sent_at"`
	StepOrder  int        `json:"step_order"`
	SequenceID string     `json:"sequence_id"`
}

// Kind derives the message kind from the platform-assigned ID prefix.
func (e Email) Kind() EmailKind {
	switch {
	case strings.HasPrefix(e.ID, prefixScheduled):
		return EmailScheduled
	case strings.HasPrefix(e.ID, prefixManual):
		return EmailManual
	case strings.HasPrefix(e.ID, prefixInbound):
		return EmailInbound
	}
	return EmailUnknown
}
