package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLinksCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "Collect listing URLs from the search result pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.app.Discovery.Discover(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Pages processed: %d/%d\n", s.PagesProcessed, s.MaxPages)
			fmt.Fprintf(out(cmd), "Links found: %d (unique %d)\n", s.TotalLinks, s.UniqueLinks)
			fmt.Fprintf(out(cmd), "Links saved: %d\n", s.LinksSaved)
			fmt.Fprintf(out(cmd), "Status: %s\n", s.Status)
			return nil
		},
	}
}

func newDetailsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "details",
		Short: "Extract static details for links not yet in any dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.app.Extract.Extract(cmd.Context())
			if err != nil {
				return err
			}
			if s.NoOp != "" {
				fmt.Fprintf(out(cmd), "Nothing to do: %s\n", s.NoOp)
				return nil
			}
			fmt.Fprintf(out(cmd), "New links: %d\n", s.NewURLs)
			fmt.Fprintf(out(cmd), "Extracted: %d\n", s.Extracted)
			fmt.Fprintf(out(cmd), "Skipped: %d\n", len(s.Skipped))
			fmt.Fprintf(out(cmd), "Total listings: %d\n", s.Total)
			return nil
		},
	}
}

func newRefreshCmd(rt *runtime) *cobra.Command {
	var urls []string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch bids and time left, and classify each listing",
		Long: `Re-fetch the auction section of each listing and update price, bids,
time remaining and status in place.

Examples:
  autosniper refresh
  autosniper refresh --urls https://www.grays.com/lot/123,https://www.grays.com/lot/456`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.app.Refresh.Refresh(cmd.Context(), urls)
			if err != nil {
				return err
			}
			if s.NoOp != "" {
				fmt.Fprintf(out(cmd), "Nothing to do: %s\n", s.NoOp)
				return nil
			}
			fmt.Fprintf(out(cmd), "Updated %d of %d targeted listings (%d failed, %d skipped)\n",
				s.Updated, s.Targeted, s.Failed, s.Skipped)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&urls, "urls", nil, "only refresh these listing URLs")
	return cmd
}

func newPartitionCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "partition",
		Short: "Move sold and referred listings into their archive datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.app.Partition.Partition(cmd.Context())
			if err != nil {
				return err
			}
			if s.NoOp != "" {
				fmt.Fprintf(out(cmd), "Nothing to do: %s\n", s.NoOp)
				return nil
			}
			fmt.Fprintf(out(cmd), "Active: %d\n", s.Active)
			fmt.Fprintf(out(cmd), "Sold: %d (archive %d)\n", s.Sold, s.SoldTotal)
			fmt.Fprintf(out(cmd), "Referred: %d (archive %d)\n", s.Referred, s.ReferredTotal)
			if s.Unclassified > 0 {
				fmt.Fprintf(out(cmd), "Unclassified (kept): %d\n", s.Unclassified)
			}
			return nil
		},
	}
}
