package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"rtgrab/internal/catalog"
	"rtgrab/internal/indexer"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	searchAuthor   string
	searchIndexers []int
	searchNames    []string
	searchGrab     int
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the book catalog and release indexers",
}

var searchBooksCmd = &cobra.Command{
	Use:   "books [title]",
	Short: "Search Hardcover for books by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Hardcover.APIKey == "" {
			return fmt.Errorf("hardcover.api_key is not configured")
		}

		client := catalog.NewClient(cfg.Hardcover.URL, cfg.Hardcover.APIKey, cfg.Fetch.Timeout)
		books, err := client.Search(cmd.Context(), strings.Join(args, " "), searchAuthor)
		if err != nil {
			return err
		}

		if len(books) == 0 {
			fmt.Println("no books found")
			return nil
		}

		rows := make([][]string, 0, len(books))
		for _, b := range books {
			rows = append(rows, []string{
				truncate(b.Title, 50),
				truncate(b.AuthorNames(), 40),
				humanize.Comma(int64(b.UsersReadCount)),
			})
		}
		fmt.Println(renderTable([]string{"TITLE", "AUTHORS", "READERS"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight}))
		return nil
	},
}

func newIndexerClient() (*indexer.Client, error) {
	if cfg.Prowlarr.URL == "" || cfg.Prowlarr.APIKey == "" {
		return nil, fmt.Errorf("prowlarr.url and prowlarr.api_key must be configured")
	}
	return indexer.NewClient(cfg.Prowlarr.URL, cfg.Prowlarr.APIKey, cfg.Prowlarr.Timeout), nil
}

var searchReleasesCmd = &cobra.Command{
	Use:   "releases [term]",
	Short: "Search Prowlarr releases, optionally adding one with --grab",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newIndexerClient()
		if err != nil {
			return err
		}

		indexers := cfg.Prowlarr.Indexers
		if len(searchIndexers) > 0 {
			indexers = searchIndexers
		}
		if len(searchNames) > 0 {
			ids, err := client.IndexerIDs(cmd.Context())
			if err != nil {
				return err
			}
			indexers = nil
			for _, name := range searchNames {
				id, ok := ids[name]
				if !ok {
					return fmt.Errorf("unknown indexer %q", name)
				}
				indexers = append(indexers, id)
			}
		}

		releases, err := client.Search(cmd.Context(), strings.Join(args, " "), indexers, cfg.Prowlarr.Categories)
		if err != nil {
			return err
		}

		if len(releases) == 0 {
			fmt.Println("no releases found")
			return nil
		}

		if searchGrab > 0 {
			return grabRelease(cmd, releases, searchGrab)
		}

		if searchLimit > 0 && len(releases) > searchLimit {
			releases = releases[:searchLimit]
		}

		rows := make([][]string, 0, len(releases))
		for i, r := range releases {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				truncate(r.Title, 60),
				r.Indexer,
				humanize.IBytes(uint64(max(r.Size, 0))),
				strconv.Itoa(r.Seeders),
			})
		}
		fmt.Println(renderTable([]string{"#", "TITLE", "INDEXER", "SIZE", "SEEDERS"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight}))
		return nil
	},
}

func grabRelease(cmd *cobra.Command, releases []indexer.Release, n int) error {
	if n > len(releases) {
		return fmt.Errorf("release %d out of range, %d results", n, len(releases))
	}

	r := releases[n-1]
	if r.DownloadURL == "" {
		return fmt.Errorf("release %q has no download url", r.Title)
	}

	_, ctl, err := newClient()
	if err != nil {
		return err
	}

	hash, err := ctl.AddFromURL(cmd.Context(), r.DownloadURL)
	if err != nil {
		return err
	}

	fmt.Printf("grabbed %q\n", r.Title)
	printAdded(hash)
	return nil
}

var searchIndexersCmd = &cobra.Command{
	Use:   "indexers",
	Short: "List configured Prowlarr indexers",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newIndexerClient()
		if err != nil {
			return err
		}

		list, err := client.Indexers(cmd.Context())
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(list))
		for _, ix := range list {
			enabled := "no"
			if ix.Enable {
				enabled = "yes"
			}
			rows = append(rows, []string{strconv.Itoa(ix.ID), ix.Name, ix.Protocol, enabled})
		}
		fmt.Println(renderTable([]string{"ID", "NAME", "PROTOCOL", "ENABLED"}, rows,
			[]columnAlignment{alignRight}))
		return nil
	},
}

func init() {
	searchBooksCmd.Flags().StringVar(&searchAuthor, "author", "", "restrict to an author name")
	searchReleasesCmd.Flags().IntSliceVar(&searchIndexers, "indexer", nil, "indexer ids to search (defaults to prowlarr.indexers)")
	searchReleasesCmd.Flags().StringSliceVar(&searchNames, "indexer-name", nil, "indexer names to search")
	searchReleasesCmd.Flags().IntVar(&searchGrab, "grab", 0, "add the Nth ranked release")
	searchReleasesCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum releases to list")

	searchCmd.AddCommand(searchBooksCmd, searchReleasesCmd, searchIndexersCmd)
	rootCmd.AddCommand(searchCmd)
}
