package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/use-agent/shelfprice/retailer"
)

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List the retailers that are searched, in query order",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := retailer.Load(cfg.Retailers.File)
		if err != nil {
			return err
		}
		return writeStores(cmd.OutOrStdout(), reg)
	},
}

func init() {
	rootCmd.AddCommand(storesCmd)
}

func writeStores(w io.Writer, reg *retailer.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STORE\tSEARCH URL\tLISTING")
	for _, p := range reg.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.SearchURL, p.Locators.Listing)
	}
	return tw.Flush()
}
