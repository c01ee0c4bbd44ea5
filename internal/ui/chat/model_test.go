package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hungg523/helpdesk-assistant/internal/auth"
	"github.com/hungg523/helpdesk-assistant/internal/transcript"
)

// scriptedBackend serves fixed pages for UI tests.
type scriptedBackend struct {
	latest     *transcript.Page
	before     map[int64]*transcript.Page
	reply      string
	feedbackID int64
}

func (b *scriptedBackend) GetOrCreateSession(ctx context.Context, userID int64) (*transcript.Session, error) {
	return &transcript.Session{ID: 1, UserID: userID}, nil
}

func (b *scriptedBackend) EndSession(ctx context.Context, sessionID int64) error { return nil }

func (b *scriptedBackend) LatestMessages(ctx context.Context, sessionID int64) (*transcript.Page, error) {
	return b.latest, nil
}

func (b *scriptedBackend) MessagesBefore(ctx context.Context, sessionID, beforeID int64) (*transcript.Page, error) {
	p, ok := b.before[beforeID]
	if !ok {
		return nil, fmt.Errorf("no page before %d", beforeID)
	}
	return p, nil
}

func (b *scriptedBackend) SendMessage(ctx context.Context, req transcript.SendRequest) (*transcript.SendResult, error) {
	return &transcript.SendResult{Reply: b.reply, SessionID: 1, Timestamp: time.Now()}, nil
}

func (b *scriptedBackend) SubmitFeedback(ctx context.Context, messageID int64, rating int, comment string) error {
	b.feedbackID = messageID
	return nil
}

func testPage(ids []int64, hasMore bool, next int64) *transcript.Page {
	epoch := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	msgs := make([]transcript.Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, transcript.Message{
			ID: id, SenderRole: transcript.RoleBot,
			Text:      fmt.Sprintf("tin nhắn %d", id),
			CreatedAt: epoch.Add(time.Duration(id) * time.Second),
		})
	}
	return &transcript.Page{Messages: msgs, Count: len(msgs), HasMore: hasMore, NextBeforeID: next}
}

func newTestModel(b *scriptedBackend) Model {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := transcript.NewSessionManager(b, 395, log)
	sync := transcript.NewSynchronizer(b, sessions, 395, "IT", log)
	m := New(sync, sessions, auth.User{ID: 395, EmployeeName: "Test"}, log)

	sized, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	loaded, _ := sized.(Model).Update(transcriptLoadedMsg{err: sync.LoadLatest(context.Background())})
	return loaded.(Model)
}

func TestInitialLoadRendersTranscript(t *testing.T) {
	m := newTestModel(&scriptedBackend{latest: testPage([]int64{50, 51, 52}, false, 0)})

	assert.False(t, m.loading)
	assert.Contains(t, m.viewport.View(), "tin nhắn 52")
	assert.True(t, m.viewport.AtBottom())
}

func TestPaginationRestoresScrollPosition(t *testing.T) {
	b := &scriptedBackend{
		latest: testPage([]int64{50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60}, true, 50),
		before: map[int64]*transcript.Page{
			50: testPage([]int64{40, 41, 42, 43, 44, 45, 46, 47, 48, 49}, false, 0),
		},
	}
	m := newTestModel(b)
	heightBefore := m.viewport.TotalLineCount()

	// Scroll to the top and let the debounced trigger fire.
	m.viewport.SetYOffset(0)
	gen := m.anchor.Arm()

	next, cmd := m.Update(paginateTickMsg{gen: gen})
	m = next.(Model)
	require.NotNil(t, cmd, "near-top tick at idle must start a history load")

	next, _ = m.Update(cmd())
	m = next.(Model)

	heightAfter := m.viewport.TotalLineCount()
	require.Greater(t, heightAfter, heightBefore)
	assert.Equal(t, heightAfter-heightBefore, m.viewport.YOffset,
		"offset must grow by exactly the prepended height")
	assert.Contains(t, m.viewport.View(), "tin nhắn 40")
}

func TestStaleDebounceDoesNotFire(t *testing.T) {
	b := &scriptedBackend{
		latest: testPage([]int64{50}, true, 50),
		before: map[int64]*transcript.Page{50: testPage([]int64{49}, false, 0)},
	}
	m := newTestModel(b)

	stale := m.anchor.Arm()
	m.anchor.Arm() // user scrolled again, restarting the window

	_, cmd := m.Update(paginateTickMsg{gen: stale})
	assert.Nil(t, cmd, "stale debounce generation must be dropped")
}

func TestSessionResetCancelsPendingTrigger(t *testing.T) {
	b := &scriptedBackend{
		latest: testPage([]int64{50}, true, 50),
		before: map[int64]*transcript.Page{50: testPage([]int64{49}, false, 0)},
	}
	m := newTestModel(b)

	gen := m.anchor.Arm()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m = next.(Model)

	_, cmd := m.Update(paginateTickMsg{gen: gen})
	assert.Nil(t, cmd, "pending trigger must not fire into the new session")
}

func TestSubmitStagesAndClearsInput(t *testing.T) {
	b := &scriptedBackend{latest: testPage(nil, false, 0), reply: "đã ghi nhận"}
	m := newTestModel(b)

	m.input.SetValue("máy tính không lên nguồn")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, transcript.StateSending, m.sync.State())

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, transcript.StateIdle, m.sync.State())
	assert.Contains(t, m.viewport.View(), "đã ghi nhận")
}

func TestFeedbackOnFreshReplyUsesServerID(t *testing.T) {
	b := &scriptedBackend{latest: testPage(nil, false, 0), reply: "đã ghi nhận"}
	m := newTestModel(b)

	m.input.SetValue("máy chậm")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(Model)

	// The backend has persisted the exchange under real ids by now.
	b.latest = &transcript.Page{Messages: []transcript.Message{
		{ID: 900, SenderRole: transcript.RoleUser, Text: "máy chậm", CreatedAt: time.Now()},
		{ID: 901, SenderRole: transcript.RoleBot, Text: "đã ghi nhận", CreatedAt: time.Now()},
	}}

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	m = next.(Model)
	require.NotNil(t, cmd, "rating a fresh reply must submit, not refuse")
	next, _ = m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, int64(901), b.feedbackID, "rating must target the id the server issued")
	assert.Equal(t, "Cảm ơn bạn đã đánh giá!", m.status)
}
