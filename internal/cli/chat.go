package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hungg523/helpdesk-assistant/internal/metrics"
	"github.com/hungg523/helpdesk-assistant/internal/transcript"
	"github.com/hungg523/helpdesk-assistant/internal/ui/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the IT assistant",
	Long: `Open the interactive chat view.

Scrolling to the top of the transcript loads older messages in place.
Keys: Enter send, Ctrl+R refresh, Ctrl+N new conversation,
Ctrl+G / Ctrl+B rate the last answer, Ctrl+J jump to latest, Esc quit.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}

	sessions := transcript.NewSessionManager(client, user.ID, logger)
	sync := transcript.NewSynchronizer(client, sessions, user.ID, cfg.Module, logger)

	model := chat.New(sync, sessions, *user, logger)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chat ui: %w", err)
	}

	snap := collector.Snapshot()
	logger.Info("chat session closed",
		"uptime_s", snap.UptimeSeconds,
		"sends", opCount(snap.Send),
		"fetches", opCount(snap.FetchLatest)+opCount(snap.FetchBefore))
	return nil
}

func opCount(s *metrics.OperationSnapshot) int64 {
	if s == nil {
		return 0
	}
	return s.Count
}
