package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/db"
	"github.com/sells-group/rentrisk/internal/loader"
	"github.com/sells-group/rentrisk/internal/region"
)

var publishCmd = &cobra.Command{
	Use:   "publish [region...]",
	Short: "Copy normalized listings and incidents into Postgres",
	Long:  "Loads the selected regions and replaces the <region>_listings and <region>_incidents tables with the cleaned rows. Columns keep the region's source names, so the same column mapping reads them back as postgres sources.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("publish"); err != nil {
			return err
		}

		env, err := loadCatalog(ctx, cfg, regionKeys(cfg, args))
		if err != nil {
			return err
		}
		defer env.Close()

		prefix, _ := cmd.Flags().GetString("table-prefix")
		for _, r := range env.Catalog.List() {
			nl, ni, err := publishRegion(ctx, env.Pool, r, prefix)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s: published %d listings, %d incidents\n", r.Key, nl, ni)
		}
		return nil
	},
}

func publishRegion(ctx context.Context, pool db.Pool, r *region.Region, prefix string) (int64, int64, error) {
	incidents, err := loader.ExportIncidents(r.Incidents, r.IncidentInput.Columns)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "publish: %s incidents", r.Key)
	}
	listings := loader.ExportListings(r.Listings, r.ListingInput.Columns)

	listingsTable := prefix + r.Key + "_listings"
	nl, err := db.ReplaceTable(ctx, pool, listingsTable, tableColumns(listings), listings.Rows)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "publish: %s listings", r.Key)
	}

	incidentsTable := prefix + r.Key + "_incidents"
	ni, err := db.ReplaceTable(ctx, pool, incidentsTable, tableColumns(incidents), incidents.Rows)
	if err != nil {
		return nl, 0, eris.Wrapf(err, "publish: %s incidents", r.Key)
	}

	zap.L().Info("published region",
		zap.String("region", r.Key),
		zap.String("listings_table", listingsTable),
		zap.Int64("listings", nl),
		zap.String("incidents_table", incidentsTable),
		zap.Int64("incidents", ni),
		zap.Strings("incident_columns", incidents.ColumnNames()),
	)
	return nl, ni, nil
}

func tableColumns(t loader.Table) []db.Column {
	out := make([]db.Column, len(t.Columns))
	for i, c := range t.Columns {
		typ := "TEXT"
		if c.Numeric {
			typ = "DOUBLE PRECISION"
		}
		out[i] = db.Column{Name: c.Name, Type: typ}
	}
	return out
}

func init() {
	publishCmd.Flags().String("table-prefix", "", "prefix for the published table names")
	rootCmd.AddCommand(publishCmd)
}
