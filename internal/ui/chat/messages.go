package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hungg523/helpdesk-assistant/internal/transcript"
)

// opTimeout bounds one backend call issued from the UI. Sends wait longer
// because the assistant generates its answer inline.
const (
	opTimeout   = 30 * time.Second
	sendTimeout = 2 * time.Minute
)

// transcriptLoadedMsg reports the initial (or refreshed) history load.
type transcriptLoadedMsg struct {
	err error
}

// sendFinishedMsg reports the outcome of an in-flight send.
type sendFinishedMsg struct {
	reply transcript.Message
	err   error
}

// olderLoadedMsg reports a completed pagination fetch.
type olderLoadedMsg struct {
	added int
	err   error
}

// paginateTickMsg fires after the scroll debounce window.
type paginateTickMsg struct {
	gen int
}

// sessionResetMsg reports that the session was reset and a fresh load ran.
type sessionResetMsg struct {
	err error
}

// feedbackSentMsg reports a feedback submission.
type feedbackSentMsg struct {
	rating int
	err    error
}

func (m *Model) loadLatestCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return transcriptLoadedMsg{err: m.sync.LoadLatest(ctx)}
	}
}

func (m *Model) sendCmd(staged transcript.Message) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		reply, err := m.sync.FinishSend(ctx, staged)
		return sendFinishedMsg{reply: reply, err: err}
	}
}

func (m *Model) loadOlderCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		added, err := m.sync.LoadOlder(ctx)
		return olderLoadedMsg{added: added, err: err}
	}
}

func (m *Model) paginateTickCmd(gen int) tea.Cmd {
	return tea.Tick(m.anchor.Debounce, func(time.Time) tea.Msg {
		return paginateTickMsg{gen: gen}
	})
}

func (m *Model) resetSessionCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		m.sessions.Reset(ctx)
		m.sync.Reset()
		return sessionResetMsg{err: m.sync.LoadLatest(ctx)}
	}
}

func (m *Model) feedbackCmd(reply transcript.Message, rating int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return feedbackSentMsg{
			rating: rating,
			err:    m.sync.RateReply(ctx, reply, rating, ""),
		}
	}
}
