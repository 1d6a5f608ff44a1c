package cmd

import (
	"fmt"

	"rtgrab/internal/db"
	"rtgrab/internal/model"
	"rtgrab/internal/repository"

	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded job actions",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewHistoryRepository(db.DB)

		var (
			actions []model.Action
			err     error
		)
		if historyFailed {
			actions, err = repo.GetFailed(historyN)
		} else {
			actions, err = repo.GetRecent(historyN)
		}
		if err != nil {
			return err
		}

		if len(actions) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		rows := make([][]string, 0, len(actions))
		for _, a := range actions {
			status := "✓"
			if a.Status == model.StatusFailed {
				status = "✗"
			}
			rows = append(rows, []string{
				status,
				a.PerformedAt.Format("2006-01-02 15:04:05"),
				a.Operation,
				a.Target,
				truncate(a.ErrMsg, 60),
			})
		}
		fmt.Println(renderTable([]string{"", "TIME", "OPERATION", "TARGET", "ERROR"}, rows, nil))

		stats, err := repo.GetStats()
		if err != nil {
			return err
		}
		fmt.Printf("%d actions, %d succeeded, %d failed\n", stats.Total, stats.Success, stats.Failed)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "show only failed actions")
	rootCmd.AddCommand(historyCmd)
}
