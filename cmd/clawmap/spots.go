package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vbonduro/clawmap/internal/db"
	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/projection"
)

var (
	spotsFilter string
	spotsMonth  string
	spotsOutput string
)

var spotsCmd = &cobra.Command{
	Use:   "spots",
	Short: "Inspect spots in the configured store",
}

var spotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List spots, optionally by category or meetup month",
	Example: `  clawmap spots list --filter meetup
  clawmap spots list --month 2024-03 --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var month *projection.Month
		if spotsMonth != "" {
			m, err := projection.ParseMonth(spotsMonth)
			if err != nil {
				return err
			}
			month = &m
		}

		if err := cfg.ValidateStore(); err != nil {
			return err
		}

		var database *sql.DB
		if cfg.StoreBackend == "sqlite" {
			d, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer d.Close()
			database = d
		}

		app, err := newApp(cfg, database, nil, logger)
		if err != nil {
			return err
		}

		var spots []domain.Spot
		if month != nil {
			if err := app.Meetups.Load(cmd.Context()); err != nil {
				return err
			}
			spots = app.Calendar(*month)
		} else {
			if err := app.Spots.Load(cmd.Context()); err != nil {
				return err
			}
			spots = app.SpotsView(spotsFilter)
		}

		if spotsOutput == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(spots)
		}
		return printSpots(cmd.OutOrStdout(), spots)
	},
}

func printSpots(w io.Writer, spots []domain.Spot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tNAME\tCITY\tEVENT DATE")
	for _, s := range spots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Category, s.Name, s.City, s.EventDate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d spot(s)\n", len(spots))
	return err
}

func init() {
	spotsListCmd.Flags().StringVar(&spotsFilter, "filter", projection.All, "category to show, or all")
	spotsListCmd.Flags().StringVar(&spotsMonth, "month", "", "show meetups for YYYY-MM instead")
	spotsListCmd.Flags().StringVarP(&spotsOutput, "output", "o", "text", "output format: text or json")

	spotsCmd.AddCommand(spotsListCmd)
}
