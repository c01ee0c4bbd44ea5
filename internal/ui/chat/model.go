// Package chat is the terminal chat view: a viewport over the transcript,
// a text input, and the scroll plumbing that turns near-top scrolling into
// history loads without losing the reading position.
package chat

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hungg523/helpdesk-assistant/internal/anchor"
	"github.com/hungg523/helpdesk-assistant/internal/auth"
	"github.com/hungg523/helpdesk-assistant/internal/transcript"
	"github.com/hungg523/helpdesk-assistant/internal/ui/styles"
)

const chromeHeight = 4 // header + status + input + spacing

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme    *styles.Theme
	sync     *transcript.Synchronizer
	sessions *transcript.SessionManager
	anchor   *anchor.Controller
	user     auth.User
	log      *slog.Logger

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	loading  bool
	banner   string
	jumpHint bool
	status   string
}

// New creates a chat model over a synchronizer.
func New(sync *transcript.Synchronizer, sessions *transcript.SessionManager, user auth.User, log *slog.Logger) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Nhập câu hỏi của bạn..."
	ti.CharLimit = transcript.MaxMessageLen
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	if log == nil {
		log = slog.Default()
	}

	return Model{
		theme:    styles.New(),
		sync:     sync,
		sessions: sessions,
		anchor:   anchor.New(),
		user:     user,
		log:      log,
		viewport: vp,
		input:    ti,
		spinner:  sp,
		loading:  true,
	}
}

// Init starts the spinner, cursor blink and the initial history load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.loadLatestCmd())
}

// Update dispatches messages to the appropriate handler.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case transcriptLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.banner = "Không tải được lịch sử chat: " + msg.err.Error()
			m.log.Error("initial load failed", "error", msg.err)
		} else {
			m.banner = ""
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		m.jumpHint = false
		return m, nil

	case sendFinishedMsg:
		if msg.err != nil {
			// The failure already shows as an error reply in the
			// transcript; the log keeps the cause.
			m.log.Error("send failed", "error", msg.err)
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		m.jumpHint = false
		return m, nil

	case paginateTickMsg:
		return m.handlePaginateTick(msg)

	case olderLoadedMsg:
		return m.handleOlderLoaded(msg)

	case sessionResetMsg:
		m.loading = false
		m.status = "Đã bắt đầu cuộc trò chuyện mới"
		if msg.err != nil {
			m.banner = "Không tải được phiên mới: " + msg.err.Error()
		} else {
			m.banner = ""
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		m.jumpHint = false
		return m, nil

	case feedbackSentMsg:
		if msg.err != nil {
			m.banner = "Gửi đánh giá thất bại: " + msg.err.Error()
		} else {
			m.status = "Cảm ơn bạn đã đánh giá!"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateComponents(msg)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	m.viewport.Width = msg.Width
	m.viewport.Height = msg.Height - chromeHeight
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.Width = msg.Width - 4

	m.refreshViewport()
	if !m.ready {
		m.viewport.GotoBottom()
		m.ready = true
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		return m.handleSubmit()

	case "ctrl+r":
		// Refresh re-runs the initial load; busy states just ignore it.
		m.loading = true
		m.banner = ""
		return m, m.loadLatestCmd()

	case "ctrl+n":
		m.loading = true
		m.banner = ""
		m.status = ""
		m.anchor.Invalidate()
		return m, m.resetSessionCmd()

	case "ctrl+g", "ctrl+b":
		return m.handleFeedback(msg.String() == "ctrl+g")

	case "ctrl+j", "end":
		m.viewport.GotoBottom()
		m.jumpHint = false
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	staged, err := m.sync.StageSend(m.input.Value())
	switch {
	case errors.Is(err, transcript.ErrEmptyMessage):
		return m, nil
	case errors.Is(err, transcript.ErrConcurrentSend):
		m.status = "Đang gửi tin nhắn trước, vui lòng đợi..."
		return m, nil
	case errors.Is(err, transcript.ErrMessageTooLong):
		m.banner = "Tin nhắn quá dài (tối đa 500 ký tự)"
		return m, nil
	case err != nil:
		m.banner = err.Error()
		return m, nil
	}

	m.input.SetValue("")
	m.banner = ""
	m.status = ""
	m.refreshViewport()
	m.viewport.GotoBottom()
	m.jumpHint = false
	return m, m.sendCmd(staged)
}

func (m Model) handleFeedback(positive bool) (tea.Model, tea.Cmd) {
	last, ok := m.sync.LastBot()
	if !ok {
		m.status = "Chưa có câu trả lời nào để đánh giá"
		return m, nil
	}
	rating := 1
	if positive {
		rating = 5
	}
	return m, m.feedbackCmd(last, rating)
}

func (m Model) handlePaginateTick(msg paginateTickMsg) (tea.Model, tea.Cmd) {
	if !m.anchor.Fire(msg.gen) {
		return m, nil
	}
	if m.sync.State() != transcript.StateIdle || !m.sync.HasMore() {
		return m, nil
	}
	m.anchor.Capture(m.viewport.TotalLineCount(), m.viewport.YOffset)
	return m, m.loadOlderCmd()
}

func (m Model) handleOlderLoaded(msg olderLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.banner = "Không tải được tin nhắn cũ: " + msg.err.Error()
		m.log.Error("pagination failed", "error", msg.err)
		return m, nil
	}
	if msg.added == 0 {
		return m, nil
	}

	m.refreshViewport()
	// Reposition in the same pass that set the new content so the
	// previously visible messages do not jump.
	if offset, ok := m.anchor.Restore(m.viewport.TotalLineCount()); ok {
		m.viewport.SetYOffset(offset)
	}
	return m, nil
}

// updateComponents forwards a message to the focused components and arms the
// pagination debounce when scrolling lands near the top.
func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	if m.ready {
		if m.anchor.NearTop(m.viewport.YOffset) && m.sync.HasMore() {
			cmds = append(cmds, m.paginateTickCmd(m.anchor.Arm()))
		}
		m.jumpHint = m.anchor.FarFromBottom(
			m.viewport.YOffset, m.viewport.TotalLineCount(), m.viewport.Height)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
}
