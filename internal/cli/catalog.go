package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"jo3qma.com/autosniper/internal/app"
	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/usecase"
)

func newEstimateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <url>",
		Short: "Ask the pricing oracle for a resale estimate and save the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := rt.app.RequireVerdict()
			if err != nil {
				return err
			}

			v, err := uc.Estimate(cmd.Context(), args[0])
			var malformed *model.OracleResponseError
			if errors.As(err, &malformed) {
				fmt.Fprintf(out(cmd), "Could not parse the oracle response (%s):\n%s\n", malformed.Reason, malformed.Raw)
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out(cmd), "Resale estimate: %s\n", v.ResaleEstimate)
			fmt.Fprintf(out(cmd), "Maximum bid: %s\n", v.MaxBid)
			fmt.Fprintf(out(cmd), "Profit margin: %s (%s)\n", v.ProfitMarginPercent, v.Label)
			return nil
		},
	}
}

func newSummaryCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show listing counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.app.Catalog.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if s.NoOp != "" {
				fmt.Fprintln(out(cmd), "No listings yet. Run `autosniper details` first.")
				return nil
			}
			fmt.Fprintf(out(cmd), "Active:   %d\n", s.Active)
			fmt.Fprintf(out(cmd), "Sold:     %d\n", s.Sold)
			fmt.Fprintf(out(cmd), "Referred: %d\n", s.Referred)
			if s.Unknown > 0 {
				fmt.Fprintf(out(cmd), "Unknown:  %d\n", s.Unknown)
			}
			fmt.Fprintf(out(cmd), "Total:    %d\n", s.Total)
			return nil
		},
	}
}

func newViableCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "viable",
		Short: "List active listings whose latest verdict is profitable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := rt.app.Catalog.Viable(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out(cmd), "No viable listings.")
				return nil
			}
			printEntries(cmd, entries)
			return nil
		},
	}
}

func printEntries(cmd *cobra.Command, entries []*usecase.CatalogEntry) {
	for _, e := range entries {
		l := e.Listing
		price, _ := l.Auction.Price.Get()
		timeLeft, _ := l.Auction.TimeLeftOrSold.Get()
		fmt.Fprintf(out(cmd), "%s\n  %s | bids %d | %s | %s\n", l.Title(), orDash(price), l.Auction.Bids, orDash(timeLeft), l.URL)
		if v := e.Verdict; v != nil {
			fmt.Fprintf(out(cmd), "  resale %s | max bid %s | margin %s | %s\n", v.ResaleEstimate, v.MaxBid, v.ProfitMarginPercent, v.Label)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newServeCmd(rt *runtime) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the listing API over Connect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = rt.cfg.Port
			}
			return app.Serve(cmd.Context(), ":"+port, rt.app.Handler(), rt.logger)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default from config)")
	return cmd
}
