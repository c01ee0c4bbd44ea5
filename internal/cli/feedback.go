package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	feedbackRating  int
	feedbackComment string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <message-id>",
	Short: "Rate an assistant answer",
	Long: `Submit a rating (1-5) for an assistant message. The message id is
shown in the chat log.

Examples:
  helpdesk feedback 1024 --rating 5
  helpdesk feedback 1024 --rating 2 --comment "câu trả lời chưa đúng"`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().IntVarP(&feedbackRating, "rating", "r", 0, "rating from 1 (poor) to 5 (great)")
	feedbackCmd.Flags().StringVarP(&feedbackComment, "comment", "c", "", "optional comment")
	feedbackCmd.MarkFlagRequired("rating")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	messageID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid message id %q", args[0])
	}

	if err := client.SubmitFeedback(cmd.Context(), messageID, feedbackRating, feedbackComment); err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}

	fmt.Println("Feedback submitted, thank you.")
	return nil
}
