package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rentrisk/internal/model"
	"github.com/sells-group/rentrisk/internal/region"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [region...]",
	Short: "Print row counts and top values for each region's sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("load"); err != nil {
			return err
		}

		env, err := loadCatalog(cmd.Context(), cfg, regionKeys(cfg, args))
		if err != nil {
			return err
		}
		defer env.Close()

		top, _ := cmd.Flags().GetInt("top")
		format, _ := cmd.Flags().GetString("format")

		var summaries []region.Summary
		for _, r := range env.Catalog.List() {
			summaries = append(summaries, r.Summarize(top))
		}
		return writeSummaries(os.Stdout, summaries, format)
	},
}

func writeSummaries(w io.Writer, summaries []region.Summary, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(summaries), "summarize: encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck
		return eris.Wrap(enc.Encode(summaries), "summarize: encode yaml")
	case "table":
		for i, s := range summaries {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeSummaryTable(w, s)
		}
		return nil
	default:
		return eris.Errorf("summarize: unknown format %q", format)
	}
}

func writeSummaryTable(w io.Writer, s region.Summary) {
	fmt.Fprintf(w, "%s (%s)\n", s.Name, s.Key)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Listings:\t%d\t(dropped %d)\n", s.Listings, s.DroppedListings)
	fmt.Fprintf(tw, "Price range:\t%.2f - %.2f\n", s.PriceMin, s.PriceMax)
	fmt.Fprintf(tw, "Incidents:\t%d\t(dropped %d)\n", s.Incidents, s.DroppedIncidents)
	fmt.Fprintf(tw, "Boundaries:\t%d\n", s.Boundaries)
	if len(s.Categories) > 0 {
		fmt.Fprintf(tw, "Categories:\t%s\n", strings.Join(s.Categories, ", "))
	}
	if len(s.Unmatched) > 0 {
		fmt.Fprintf(tw, "Unmatched:\t%s\n", strings.Join(s.Unmatched, ", "))
	}
	_ = tw.Flush()

	writeCounts(w, "Room types", s.RoomTypes)
	writeCounts(w, "Neighbourhoods", s.Neighbourhoods)
	writeCounts(w, "Incident labels", s.Labels)
	writeCounts(w, "Incident neighbourhoods", s.IncidentNeighbourhoods)
}

func writeCounts(w io.Writer, title string, counts []model.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range counts {
		fmt.Fprintf(tw, "  %s\t%d\n", c.Name, c.Count)
	}
	_ = tw.Flush()
}

func init() {
	summarizeCmd.Flags().Int("top", 10, "entries per count list (0 = all)")
	summarizeCmd.Flags().String("format", "table", "output format: table, json, yaml")
	rootCmd.AddCommand(summarizeCmd)
}
