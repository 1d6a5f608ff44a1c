package cmd

import (
	"fmt"

	"rtgrab/internal/rtorrent"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the rTorrent client version",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _, err := newClient()
		if err != nil {
			return err
		}

		v, err := repo.GetVersion(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("rtorrent %s (%s)\n", v, cfg.RTorrent.URL)
		fmt.Printf("user agent %s\n", rtorrent.UserAgent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
