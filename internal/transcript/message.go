// Package transcript holds the chat transcript: an ordered, deduplicated
// message store and the synchronizer that keeps it consistent with the
// helpdesk backend.
package transcript

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is a single transcript entry.
//
// Messages fetched from history carry the server-assigned ID. Optimistic
// entries are tagged Pending with a LocalID; their numeric ID is clock-derived
// for display ordering only and is never used to match a server echo. A bot
// reply appended straight from a send response has ID 0 until the id is
// resolved from history.
type Message struct {
	ID         int64
	SessionID  int64
	SenderRole Role
	Text       string
	IsError    bool
	Source     string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time

	Pending bool
	LocalID uuid.UUID
}

// Session is a chat session as the server reports it.
type Session struct {
	ID         int64
	UserID     int64
	ModuleCode string
	Status     string
	// Messages seeds the store when the server embeds the recent
	// transcript in the session payload.
	Messages []Message
}

// Cursor tracks backward pagination through session history.
type Cursor struct {
	NextBeforeID int64
	HasMore      bool
}

// Page is one batch of history returned by the backend, newest batch first
// on initial load, strictly older batches afterwards.
type Page struct {
	Messages []Message
	Count    int
	HasMore  bool
	// NextBeforeID is the id to pass to the next history request.
	// Zero when the transcript is exhausted.
	NextBeforeID int64
}

// SendRequest is an outgoing user message.
type SendRequest struct {
	Text   string
	UserID int64
	Module string
}

// SendResult is the backend's reply to a send.
type SendResult struct {
	Reply     string
	SessionID int64
	Timestamp time.Time
}
