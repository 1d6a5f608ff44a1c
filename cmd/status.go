package cmd

import (
	"fmt"
	"strconv"

	"rtgrab/internal/rtorrent"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var summaryStates = []rtorrent.State{
	rtorrent.StateActive, rtorrent.StatePaused,
	rtorrent.StateStopped, rtorrent.StateHashChecking,
}

type jobSummary struct {
	counts   map[rtorrent.State]int
	downRate int64
	upRate   int64
}

func summarizeJobs(jobs []rtorrent.Job) jobSummary {
	s := jobSummary{counts: make(map[rtorrent.State]int, len(summaryStates))}
	for _, j := range jobs {
		s.counts[j.State()]++
		s.downRate += j.DownRate
		s.upRate += j.UpRate
	}
	return s
}

func (s jobSummary) rows() [][]string {
	rows := make([][]string, 0, len(summaryStates))
	for _, state := range summaryStates {
		rows = append(rows, []string{string(state), strconv.Itoa(s.counts[state])})
	}
	return rows
}

func (s jobSummary) rateLine() string {
	return fmt.Sprintf("down %s, up %s", formatRate(s.downRate), formatRate(s.upRate))
}

func formatRate(bytesPerSec int64) string {
	return humanize.IBytes(uint64(max(bytesPerSec, 0))) + "/s"
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the daemon's job set",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _, err := newClient()
		if err != nil {
			return err
		}

		v, err := repo.GetVersion(cmd.Context())
		if err != nil {
			return err
		}

		jobs, err := repo.ListJobs(cmd.Context())
		if err != nil {
			return err
		}

		summary := summarizeJobs(jobs)

		fmt.Printf("rtorrent %s, %d jobs in view %q\n", v, len(jobs), cfg.RTorrent.View)
		fmt.Println(renderTable([]string{"STATE", "JOBS"}, summary.rows(), []columnAlignment{alignLeft, alignRight}))
		fmt.Println(summary.rateLine())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
