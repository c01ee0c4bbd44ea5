package transcript

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReconcileWindow bounds how far apart an optimistic entry and its server
// echo may be timestamped and still be treated as the same message.
const ReconcileWindow = 5 * time.Second

// Store is the in-memory transcript: messages in ascending CreatedAt order
// plus the pagination cursor.
//
// Store is not safe for concurrent use; the Synchronizer serializes access.
type Store struct {
	messages []Message
	cursor   Cursor
}

// NewStore creates an empty store with an exhausted cursor.
func NewStore() *Store {
	return &Store{}
}

// Seed replaces the transcript with a freshly fetched batch.
func (s *Store) Seed(msgs []Message, cursor Cursor) {
	s.messages = make([]Message, len(msgs))
	copy(s.messages, msgs)
	s.cursor = cursor
}

// Clear drops all messages and resets the cursor.
func (s *Store) Clear() {
	s.messages = nil
	s.cursor = Cursor{}
}

// AppendOptimistic appends a locally staged message to the end of the
// transcript.
func (s *Store) AppendOptimistic(m Message) {
	s.messages = append(s.messages, m)
}

// AppendConfirmed appends a server-confirmed message. A confirmed user
// message replaces a still-pending entry with the same trimmed text written
// within ReconcileWindow instead of duplicating it; a message whose id is
// already present is dropped.
func (s *Store) AppendConfirmed(m Message) {
	if m.ID != 0 && s.containsID(m.ID) {
		return
	}
	if m.SenderRole == RoleUser {
		if i := s.findPendingEcho(m); i >= 0 {
			s.messages[i] = m
			return
		}
	}
	s.messages = append(s.messages, m)
}

// ConfirmPending clears the Pending flag on the entry tagged localID,
// adopting the server id when one is known.
func (s *Store) ConfirmPending(localID uuid.UUID, serverID int64) {
	for i := range s.messages {
		if s.messages[i].Pending && s.messages[i].LocalID == localID {
			s.messages[i].Pending = false
			if serverID != 0 {
				s.messages[i].ID = serverID
			}
			return
		}
	}
}

// AdoptReplyID sets the server id on the newest bot message that has none
// and matches text. Returns false when no such entry exists.
func (s *Store) AdoptReplyID(text string, id int64) bool {
	if id == 0 {
		return false
	}
	t := strings.TrimSpace(text)
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := &s.messages[i]
		if m.SenderRole == RoleBot && !m.IsError && m.ID == 0 && strings.TrimSpace(m.Text) == t {
			m.ID = id
			return true
		}
	}
	return false
}

// DropPending removes the entry tagged localID if it is still pending.
func (s *Store) DropPending(localID uuid.UUID) {
	for i := range s.messages {
		if s.messages[i].Pending && s.messages[i].LocalID == localID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// PrependOlder inserts an older history batch at the front of the transcript
// and advances the cursor. Messages whose ids are already present are
// skipped. An empty batch marks the cursor exhausted. Returns the number of
// messages actually added.
func (s *Store) PrependOlder(p *Page) int {
	if p == nil || len(p.Messages) == 0 {
		s.cursor = Cursor{}
		return 0
	}

	fresh := make([]Message, 0, len(p.Messages))
	for _, m := range p.Messages {
		if m.ID != 0 && s.containsID(m.ID) {
			continue
		}
		fresh = append(fresh, m)
	}

	s.messages = append(fresh, s.messages...)
	s.cursor = Cursor{NextBeforeID: p.NextBeforeID, HasMore: p.HasMore}
	return len(fresh)
}

// All returns a copy of the transcript for rendering.
func (s *Store) All() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (s *Store) Len() int {
	return len(s.messages)
}

// Last returns the newest message, or false when the transcript is empty.
func (s *Store) Last() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// LastBot returns the newest non-error bot message, or false if none exists.
func (s *Store) LastBot() (Message, bool) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].SenderRole == RoleBot && !s.messages[i].IsError {
			return s.messages[i], true
		}
	}
	return Message{}, false
}

// Cursor returns the current pagination cursor.
func (s *Store) Cursor() Cursor {
	return s.cursor
}

func (s *Store) containsID(id int64) bool {
	for i := range s.messages {
		if !s.messages[i].Pending && s.messages[i].ID == id {
			return true
		}
	}
	return false
}

func (s *Store) findPendingEcho(m Message) int {
	text := strings.TrimSpace(m.Text)
	for i := range s.messages {
		p := &s.messages[i]
		if !p.Pending || p.SenderRole != RoleUser {
			continue
		}
		if strings.TrimSpace(p.Text) != text {
			continue
		}
		d := m.CreatedAt.Sub(p.CreatedAt)
		if d < 0 {
			d = -d
		}
		if d <= ReconcileWindow {
			return i
		}
	}
	return -1
}
