package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/use-agent/shelfprice/models"
)

var compareJSON bool

var compareCmd = &cobra.Command{
	Use:   "compare ITEM...",
	Short: "Compare prices for items once and print the results",
	Example: `  shelfprice compare milk "free range eggs"
  SHELFPRICE_RENDERER=http shelfprice compare --json bread`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > cfg.Scraper.MaxItems {
			return fmt.Errorf("too many items: %d (max %d)", len(args), cfg.Scraper.MaxItems)
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		// Ctrl-C turns the remaining queries into errors instead of
		// leaving a browser behind.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		results := a.scraper.Compare(ctx, args)
		return writeResults(cmd.OutOrStdout(), results, compareJSON)
	},
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the results as a JSON array")
	rootCmd.AddCommand(compareCmd)
}

// writeResults prints results as an aligned table, or as the same JSON
// array the API returns.
func writeResults(w io.Writer, results []models.ResultRecord, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STORE\tNAME\tPRICE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Store, r.Name, r.Price)
	}
	return tw.Flush()
}
