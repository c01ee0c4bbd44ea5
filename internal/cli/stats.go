package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hungg523/helpdesk-assistant/internal/stats"
)

var (
	statsFrom string
	statsTo   string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show helpdesk statistics",
	Long: `Fetch aggregated helpdesk statistics from the backend.

The backend's statistics endpoint is slow; requests run under a timeout and
fall back to the last cached numbers (marked stale) when it does not answer.

Examples:
  helpdesk stats
  helpdesk stats --from 2025-03-01 --to 2025-03-31`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFrom, "from", "", "start date (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "end date (YYYY-MM-DD)")
}

func runStats(cmd *cobra.Command, args []string) error {
	cache, err := stats.OpenCache(cfg.StatsCachePath())
	if err != nil {
		// Cache failure only disables fallback.
		logger.Warn("stats cache unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	sc := stats.New(stats.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.StatsTimeout,
		Cache:   cache,
		Metrics: collector,
		Logger:  logger,
	})

	ov, stale, err := sc.Overview(cmd.Context(), statsFrom, statsTo)
	if err != nil {
		return fmt.Errorf("fetch statistics: %w", err)
	}

	if stale {
		fmt.Println("(showing cached numbers, backend unavailable)")
	}
	if ov.From != "" || ov.To != "" {
		fmt.Printf("Range:          %s .. %s\n", ov.From, ov.To)
	}
	fmt.Printf("Sessions:       %d\n", ov.TotalSessions)
	fmt.Printf("Messages:       %d\n", ov.TotalMessages)
	fmt.Printf("Active users:   %d\n", ov.ActiveUsers)
	if ov.AvgResponseMs > 0 {
		fmt.Printf("Avg response:   %.0f ms\n", ov.AvgResponseMs)
	}
	for _, mc := range ov.ByModule {
		fmt.Printf("  %-12s  %d sessions\n", mc.Module, mc.Sessions)
	}
	return nil
}
