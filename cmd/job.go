package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"rtgrab/internal/rtorrent"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	addDir   string
	addLabel string
	erase    bool
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage download jobs",
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all jobs in the configured view",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _, err := newClient()
		if err != nil {
			return err
		}

		jobs, err := repo.ListJobs(cmd.Context())
		if err != nil {
			return err
		}

		if len(jobs) == 0 {
			fmt.Println("no jobs")
			return nil
		}

		fmt.Println(renderTable(jobListHeaders, jobListRows(jobs), jobListAligns))
		return nil
	},
}

var (
	jobListHeaders = []string{"HASH", "NAME", "STATE", "SIZE", "DOWN", "UP", "LABEL"}
	jobListAligns  = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
)

func jobListRows(jobs []rtorrent.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.Hash[:min(len(j.Hash), 8)],
			truncate(j.Name, 48),
			string(j.State()),
			humanize.IBytes(uint64(max(j.SizeBytes, 0))),
			formatRate(j.DownRate),
			formatRate(j.UpRate),
			j.Label,
		})
	}
	return rows
}

var jobShowCmd = &cobra.Command{
	Use:   "show [hash]",
	Short: "Show one job in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _, err := newClient()
		if err != nil {
			return err
		}

		j, ok, err := repo.GetJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("job %s: %w", args[0], rtorrent.ErrNotFound)
		}

		rows := [][]string{
			{"hash", j.Hash},
			{"name", j.Name},
			{"state", string(j.State())},
			{"size", humanize.IBytes(uint64(max(j.SizeBytes, 0)))},
			{"progress", fmt.Sprintf("%.1f%%", j.Progress()*100)},
			{"directory", j.Directory},
			{"label", j.Label},
			{"priority", j.Priority.String()},
			{"peers", strconv.FormatInt(j.Peers, 10)},
			{"ratio", fmt.Sprintf("%.3f", j.Ratio)},
		}
		fmt.Println(renderTable([]string{"FIELD", "VALUE"}, rows, nil))
		return nil
	},
}

var jobAddCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Fetch a payload from a URL and start it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ctl, err := newClient()
		if err != nil {
			return err
		}

		hash, err := ctl.AddFromURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		printAdded(hash)
		return nil
	},
}

var jobAddFileCmd = &cobra.Command{
	Use:   "add-file [path]",
	Short: "Load a local payload file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}

		_, ctl, err := newClient()
		if err != nil {
			return err
		}

		hash, err := ctl.AddFromPayload(cmd.Context(), data, rtorrent.AddOptions{
			Directory: addDir,
			Label:     addLabel,
			Source:    filepath.Base(args[0]),
		})
		if err != nil {
			return err
		}

		printAdded(hash)
		return nil
	},
}

func printAdded(hash string) {
	if hash == "" {
		fmt.Println("job added, hash not yet visible")
		return
	}
	fmt.Printf("job added: %s\n", hash)
}

var jobRemoveCmd = &cobra.Command{
	Use:   "remove [hash]",
	Short: "Stop and close a job, or erase it with --erase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ctl, err := newClient()
		if err != nil {
			return err
		}

		if err := ctl.Remove(cmd.Context(), args[0], erase); err != nil {
			return err
		}

		fmt.Printf("job %s removed\n", args[0])
		return nil
	},
}

var jobPauseCmd = &cobra.Command{
	Use:   "pause [hash]",
	Short: "Pause a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ctl, err := newClient()
		if err != nil {
			return err
		}

		if err := ctl.Pause(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("job %s paused\n", args[0])
		return nil
	},
}

var jobResumeCmd = &cobra.Command{
	Use:   "resume [hash]",
	Short: "Resume a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ctl, err := newClient()
		if err != nil {
			return err
		}

		if err := ctl.Resume(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("job %s resumed\n", args[0])
		return nil
	},
}

var jobPriorityCmd = &cobra.Command{
	Use:   "priority [hash] [0-3]",
	Short: "Set a job's priority (0 off, 1 low, 2 normal, 3 high)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[1])
		if err != nil || level < int(rtorrent.PriorityOff) || level > int(rtorrent.PriorityHigh) {
			return fmt.Errorf("priority must be between 0 and 3, got %q", args[1])
		}

		_, ctl, err := newClient()
		if err != nil {
			return err
		}

		p := rtorrent.Priority(level)
		if err := ctl.SetPriority(cmd.Context(), args[0], p); err != nil {
			return err
		}

		fmt.Printf("job %s priority set to %s\n", args[0], p)
		return nil
	},
}

var jobRateCmd = &cobra.Command{
	Use:   "rate [hash]",
	Short: "Show a job's current download rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ctl, err := newClient()
		if err != nil {
			return err
		}

		rate, err := ctl.GetDownloadRate(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(formatRate(rate))
		return nil
	},
}

func init() {
	jobAddFileCmd.Flags().StringVar(&addDir, "dir", "", "download directory for the new job")
	jobAddFileCmd.Flags().StringVar(&addLabel, "label", "", "label for the new job")
	jobRemoveCmd.Flags().BoolVar(&erase, "erase", false, "erase the job instead of stopping and closing it")

	jobCmd.AddCommand(jobListCmd, jobShowCmd, jobAddCmd, jobAddFileCmd,
		jobRemoveCmd, jobPauseCmd, jobResumeCmd, jobPriorityCmd, jobRateCmd)
	rootCmd.AddCommand(jobCmd)
}
