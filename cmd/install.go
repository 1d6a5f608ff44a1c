package cmd

import (
	"fmt"
	"os"

	"rtgrab/internal/autostart"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the watch loop at login",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Watch.Dir == "" {
			return fmt.Errorf("set watch.dir before installing the watch service")
		}

		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		if err := autostart.New().Install(execPath); err != nil {
			return err
		}

		fmt.Println("rtgrab watch registered for autostart")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
