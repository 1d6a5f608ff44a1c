package cmd

import (
	"fmt"

	"rtgrab/internal/autostart"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the watch loop from autostart",
	RunE: func(cmd *cobra.Command, args []string) error {
		as := autostart.New()

		installed, err := as.IsInstalled()
		if err != nil {
			return err
		}
		if !installed {
			fmt.Println("rtgrab watch is not registered")
			return nil
		}

		if err := as.Uninstall(); err != nil {
			return err
		}

		fmt.Println("rtgrab watch removed from autostart")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
