package transcript

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxMessageLen is the longest user message the backend accepts, in runes.
const MaxMessageLen = 500

// FallbackReply is shown in place of a bot answer when a send fails. The
// failure stays in the transcript so the user can see which question went
// unanswered.
const FallbackReply = "Xin lỗi, đã có lỗi xảy ra. Vui lòng thử lại sau."

var (
	// ErrConcurrentSend rejects a send staged while another is in flight.
	// It is a local guard: nothing is sent and the transcript is unchanged.
	ErrConcurrentSend = errors.New("a message is already being sent")
	// ErrEmptyMessage rejects a message that is empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrMessageTooLong rejects a message over MaxMessageLen runes.
	ErrMessageTooLong = errors.New("message is too long")
	// ErrBusy signals that a load was skipped because the synchronizer is
	// mid-operation. Callers treat it as "try again later", not a failure.
	ErrBusy = errors.New("synchronizer is busy")
	// ErrReplyNotFound means a reply could not be matched against the
	// server's history, so there is no id to rate.
	ErrReplyNotFound = errors.New("reply not found in session history")
)

// State is the synchronizer's lifecycle state. Exactly one operation may be
// in flight at a time; every transition starts and ends at StateIdle.
type State int

const (
	StateIdle State = iota
	StateInitialLoading
	StateSending
	StateLoadingMore
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialLoading:
		return "initial_loading"
	case StateSending:
		return "sending"
	case StateLoadingMore:
		return "loading_more"
	default:
		return "unknown"
	}
}

// Backend is the slice of the transport the synchronizer needs.
type Backend interface {
	LatestMessages(ctx context.Context, sessionID int64) (*Page, error)
	MessagesBefore(ctx context.Context, sessionID, beforeID int64) (*Page, error)
	SendMessage(ctx context.Context, req SendRequest) (*SendResult, error)
	SubmitFeedback(ctx context.Context, messageID int64, rating int, comment string) error
}

// Synchronizer drives the transcript through the four-state send/load
// protocol. All mutation of the store goes through here; the state guards
// linearize concurrent callers the same way a single-threaded event loop
// would.
type Synchronizer struct {
	mu       sync.Mutex
	state    State
	epoch    int
	store    *Store
	backend  Backend
	sessions *SessionManager
	module   string
	userID   int64
	log      *slog.Logger

	now func() time.Time
}

// NewSynchronizer wires a synchronizer over an empty store.
func NewSynchronizer(backend Backend, sessions *SessionManager, userID int64, module string, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{
		store:    NewStore(),
		backend:  backend,
		sessions: sessions,
		module:   module,
		userID:   userID,
		log:      log,
		now:      time.Now,
	}
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the transcript for rendering.
func (s *Synchronizer) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.All()
}

// HasMore reports whether older history remains to load.
func (s *Synchronizer) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.store.Cursor()
	return c.HasMore && c.NextBeforeID != 0
}

// LastBot returns the newest non-error bot message.
func (s *Synchronizer) LastBot() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LastBot()
}

// LoadLatest opens the session and seeds the store with the newest history
// page. On failure the store is left empty and the state returns to idle;
// there is no automatic retry. A load attempted while another operation is
// in flight returns ErrBusy without touching anything.
func (s *Synchronizer) LoadLatest(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = StateInitialLoading
	s.mu.Unlock()

	err := s.loadLatest(ctx)

	s.mu.Lock()
	s.state = StateIdle
	if err != nil {
		s.store.Clear()
	}
	s.mu.Unlock()
	return err
}

func (s *Synchronizer) loadLatest(ctx context.Context) error {
	sess, err := s.sessions.Open(ctx)
	if err != nil {
		return err
	}

	// A freshly opened session may embed its recent transcript; use it as
	// the seed instead of refetching the same page. Pagination continues
	// from the oldest embedded id, and an empty first older page simply
	// exhausts the cursor.
	if seed := s.sessions.TakeSeed(); len(seed) > 0 {
		s.mu.Lock()
		s.store.Seed(seed, Cursor{NextBeforeID: oldestID(seed), HasMore: true})
		s.mu.Unlock()

		s.log.Debug("transcript seeded from session payload",
			"session_id", sess.ID, "messages", len(seed))
		return nil
	}

	page, err := s.backend.LatestMessages(ctx, sess.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.store.Seed(page.Messages, Cursor{NextBeforeID: page.NextBeforeID, HasMore: page.HasMore})
	s.mu.Unlock()

	s.log.Debug("transcript loaded",
		"session_id", sess.ID, "messages", len(page.Messages), "has_more", page.HasMore)
	return nil
}

// StageSend validates text and appends it to the transcript as a pending
// user message, moving the synchronizer to StateSending. The staged message
// must then be handed to FinishSend. Staging while not idle fails with
// ErrConcurrentSend and changes nothing.
func (s *Synchronizer) StageSend(text string) (Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLen {
		return Message{}, ErrMessageTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return Message{}, ErrConcurrentSend
	}

	now := s.now()
	staged := Message{
		ID:         now.UnixMilli(),
		SenderRole: RoleUser,
		Text:       trimmed,
		CreatedAt:  now,
		Pending:    true,
		LocalID:    uuid.New(),
	}
	s.store.AppendOptimistic(staged)
	s.state = StateSending
	return staged, nil
}

// FinishSend performs the network send for a staged message. On success the
// pending entry is confirmed, the server's session id is adopted and the bot
// reply is appended. On failure a synthetic error reply is appended instead
// and the error returned. Either way the synchronizer is idle afterwards and
// the returned message is what was appended.
//
// The appended reply carries no server id; RateReply resolves one when the
// user rates it. If Reset ran while the send was on the wire, the result is
// dropped without touching the new transcript or session.
func (s *Synchronizer) FinishSend(ctx context.Context, staged Message) (Message, error) {
	s.mu.Lock()
	if s.state != StateSending {
		// A reset wiped the staged entry before the send started.
		s.mu.Unlock()
		return Message{}, nil
	}
	epoch := s.epoch
	s.mu.Unlock()

	res, sendErr := s.backend.SendMessage(ctx, SendRequest{
		Text:   staged.Text,
		UserID: s.userID,
		Module: s.module,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		s.log.Debug("dropping send result from a reset session", "error", sendErr)
		return Message{}, nil
	}

	s.state = StateIdle

	if sendErr != nil {
		s.store.ConfirmPending(staged.LocalID, 0)
		reply := Message{
			SenderRole: RoleBot,
			Text:       FallbackReply,
			IsError:    true,
			CreatedAt:  s.now(),
		}
		s.store.AppendConfirmed(reply)
		s.log.Error("send failed", "error", sendErr)
		return reply, sendErr
	}

	s.sessions.Adopt(res.SessionID)
	s.store.ConfirmPending(staged.LocalID, 0)

	ts := res.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	reply := Message{
		SessionID:  res.SessionID,
		SenderRole: RoleBot,
		Text:       res.Reply,
		CreatedAt:  ts,
	}
	s.store.AppendConfirmed(reply)
	return reply, nil
}

// LoadOlder fetches the next older history page and prepends it. The call is
// ignored (0, nil) unless the synchronizer is idle and the cursor has more;
// re-entrant triggers from scroll events are expected and harmless. On
// failure the cursor is left untouched so the trigger can fire again.
func (s *Synchronizer) LoadOlder(ctx context.Context) (int, error) {
	s.mu.Lock()
	cur := s.store.Cursor()
	if s.state != StateIdle || !cur.HasMore || cur.NextBeforeID == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	s.state = StateLoadingMore
	s.mu.Unlock()

	sessionID, err := s.sessions.Current()
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return 0, err
	}

	page, err := s.backend.MessagesBefore(ctx, sessionID, cur.NextBeforeID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	if err != nil {
		return 0, err
	}
	return s.store.PrependOlder(page), nil
}

// RateReply submits a rating for a bot reply. Failures never touch the
// transcript. A reply appended by FinishSend carries no server id yet; it is
// resolved by refetching the latest history page and matching the reply text,
// the same way the id would be recovered on a fresh load.
func (s *Synchronizer) RateReply(ctx context.Context, reply Message, rating int, comment string) error {
	id := reply.ID
	if id == 0 {
		resolved, err := s.resolveReplyID(ctx, reply)
		if err != nil {
			return err
		}
		id = resolved
	}
	return s.backend.SubmitFeedback(ctx, id, rating, comment)
}

func (s *Synchronizer) resolveReplyID(ctx context.Context, reply Message) (int64, error) {
	sessionID, err := s.sessions.Current()
	if err != nil {
		return 0, err
	}
	page, err := s.backend.LatestMessages(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	text := strings.TrimSpace(reply.Text)
	for i := len(page.Messages) - 1; i >= 0; i-- {
		m := page.Messages[i]
		if m.ID == 0 || m.SenderRole != RoleBot || m.IsError {
			continue
		}
		if strings.TrimSpace(m.Text) != text {
			continue
		}
		s.mu.Lock()
		s.store.AdoptReplyID(reply.Text, m.ID)
		s.mu.Unlock()
		return m.ID, nil
	}
	return 0, ErrReplyNotFound
}

// Reset clears the transcript and returns to idle. The session itself is
// reset through the SessionManager. Bumping the epoch makes any send still
// on the wire discard its result instead of mutating the new transcript.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.store.Clear()
	s.state = StateIdle
}

// oldestID returns the smallest server id in a batch, 0 when none carries one.
func oldestID(msgs []Message) int64 {
	var min int64
	for _, m := range msgs {
		if m.ID == 0 {
			continue
		}
		if min == 0 || m.ID < min {
			min = m.ID
		}
	}
	return min
}
