package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hungg523/helpdesk-assistant/internal/transcript"
)

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Đang khởi động..."
	}

	var b strings.Builder

	title := "Trợ lý IT"
	if m.user.EmployeeName != "" {
		title = fmt.Sprintf("Trợ lý IT · %s", m.user.EmployeeName)
	}
	b.WriteString(m.theme.Header.Render(title))
	b.WriteString("\n")

	if m.loading {
		b.WriteString(lipgloss.Place(m.viewport.Width, m.viewport.Height,
			lipgloss.Center, lipgloss.Center,
			m.theme.Spinner.Render(m.spinner.View()+" Đang tải lịch sử chat...")))
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.input.View())

	return b.String()
}

func (m Model) statusLine() string {
	switch {
	case m.banner != "":
		return m.theme.Banner.Render(m.banner)
	case m.sync.State() == transcript.StateSending:
		return m.theme.StatusBar.Render(m.spinner.View() + " Trợ lý đang trả lời...")
	case m.sync.State() == transcript.StateLoadingMore:
		return m.theme.StatusBar.Render(m.spinner.View() + " Đang tải tin nhắn cũ...")
	case m.jumpHint:
		return m.theme.JumpHint.Render("↓ Ctrl+J: về tin nhắn mới nhất")
	case m.status != "":
		return m.theme.StatusBar.Render(m.status)
	default:
		return m.theme.Help.Render(" Enter gửi · Ctrl+N chat mới · Ctrl+G/Ctrl+B đánh giá · Esc thoát")
	}
}

// renderTranscript renders all messages for the viewport.
func (m Model) renderTranscript() string {
	msgs := m.sync.Messages()
	if len(msgs) == 0 {
		return m.theme.Help.Render("\n  Chưa có tin nhắn. Hãy đặt câu hỏi cho trợ lý IT.")
	}

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg transcript.Message, width int) string {
	label := m.theme.BotLabel.Render("Trợ lý")
	if msg.SenderRole == transcript.RoleUser {
		label = m.theme.UserLabel.Render("Bạn")
	}

	ts := ""
	if !msg.CreatedAt.IsZero() {
		ts = m.theme.Timestamp.Render(msg.CreatedAt.Local().Format("15:04"))
	}

	head := label
	if ts != "" {
		head = label + " " + ts
	}
	if msg.Pending {
		head += " " + m.theme.Pending.Render("(đang gửi)")
	}

	textStyle := m.theme.BotText
	switch {
	case msg.IsError:
		textStyle = m.theme.ErrorText
	case msg.SenderRole == transcript.RoleUser:
		textStyle = m.theme.UserText
	}

	body := textStyle.Width(width - 2).Render(msg.Text)
	return head + "\n" + body
}
